package catalog

import (
	"context"
	"encoding/json"

	"github.com/rushteam/flickrec/core"
)

const (
	cacheKeyDetails  = "catalog:details"
	cacheKeyKeywords = "catalog:keywords"
)

// CachedService 是 CatalogService 的读穿缓存装饰器。
//
// TMDB 没有批量接口且有限流，关键词富化又集中在热门影片上，
// 用 KeyValueStore 的 Hash 结构做一层读穿缓存（field = movieID）。
//
// 缓存语义：
//   - 命中即返回，不回源
//   - 未命中回源成功后写缓存（写失败忽略，缓存是加速器不是事实源）
//   - 回源失败不缓存错误（下次重试）
type CachedService struct {
	Source core.CatalogService
	Cache  core.KeyValueStore
}

// NewCachedService 创建一个读穿缓存目录实例。
func NewCachedService(source core.CatalogService, cache core.KeyValueStore) *CachedService {
	return &CachedService{
		Source: source,
		Cache:  cache,
	}
}

func (s *CachedService) MovieDetails(ctx context.Context, movieID string) (*core.MovieDetail, error) {
	if data, err := s.Cache.HGet(ctx, cacheKeyDetails, movieID); err == nil {
		var detail core.MovieDetail
		if err := json.Unmarshal(data, &detail); err == nil {
			return &detail, nil
		}
	}

	detail, err := s.Source.MovieDetails(ctx, movieID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(detail); err == nil {
		_ = s.Cache.HSet(ctx, cacheKeyDetails, movieID, data)
	}
	return detail, nil
}

func (s *CachedService) MovieKeywords(ctx context.Context, movieID string) ([]string, error) {
	if data, err := s.Cache.HGet(ctx, cacheKeyKeywords, movieID); err == nil {
		var keywords []string
		if err := json.Unmarshal(data, &keywords); err == nil {
			return keywords, nil
		}
	}

	keywords, err := s.Source.MovieKeywords(ctx, movieID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(keywords); err == nil {
		_ = s.Cache.HSet(ctx, cacheKeyKeywords, movieID, data)
	}
	return keywords, nil
}

func (s *CachedService) Close() error {
	return s.Source.Close()
}

var _ core.CatalogService = (*CachedService)(nil)
