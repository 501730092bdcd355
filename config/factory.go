package config

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/flickrec/catalog"
	"github.com/rushteam/flickrec/core"
	"github.com/rushteam/flickrec/embed"
	"github.com/rushteam/flickrec/profile"
	"github.com/rushteam/flickrec/service"
	"github.com/rushteam/flickrec/store"
	"github.com/rushteam/flickrec/vector"
)

// BuildEngine 根据配置组装推荐引擎（工厂方法）。
//
// 组装顺序：存储 → 索引 → Embedding → 目录 → 引擎。
// 任何一个协作方创建失败都直接返回错误，不做降级组装。
func BuildEngine(cfg *Config, logger zerolog.Logger) (*service.Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	kv, err := buildStore(cfg)
	if err != nil {
		return nil, err
	}

	index, err := buildIndex(cfg)
	if err != nil {
		return nil, err
	}

	embedder := embed.NewHTTPService(
		cfg.Embedding.Endpoint,
		embed.WithModel(cfg.Embedding.Model, cfg.Embedding.Dim),
		embed.WithTimeout(cfg.Embedding.Timeout),
	)

	cat, err := buildCatalog(cfg, kv)
	if err != nil {
		return nil, err
	}

	opts := []service.EngineOption{
		service.WithCollections(cfg.Index.MoviesCollection, cfg.Index.UsersCollection),
		service.WithTopKLimits(cfg.Engine.DefaultTopK, cfg.Engine.MaxTopK),
		service.WithEnrichTimeout(time.Duration(cfg.Engine.EnrichTimeout) * time.Second),
		service.WithLogger(logger),
	}
	if cat != nil {
		opts = append(opts, service.WithCatalog(cat))
	}
	if cfg.Engine.RuleExpr != "" {
		opts = append(opts, service.WithRuleExpr(cfg.Engine.RuleExpr))
	}

	profiles := profile.NewStore(kv, logger)
	return service.NewEngine(profiles, index, embedder, opts...)
}

func buildStore(cfg *Config) (core.KeyValueStore, error) {
	switch cfg.Store.Backend {
	case "memory":
		return store.NewMemoryStore(), nil
	case "redis":
		s, err := store.NewRedisStore(cfg.Store.Addr, cfg.Store.DB)
		if err != nil {
			return nil, fmt.Errorf("create redis store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Store.Backend)
	}
}

func buildIndex(cfg *Config) (core.VectorIndexService, error) {
	switch cfg.Index.Backend {
	case "memory":
		return vector.NewMemoryService(), nil
	case "chroma":
		opts := []vector.ChromaOption{}
		if cfg.Index.Timeout > 0 {
			opts = append(opts, vector.WithChromaTimeout(cfg.Index.Timeout))
		}
		return vector.NewChromaService(cfg.Index.Endpoint, opts...), nil
	default:
		return nil, fmt.Errorf("unknown index backend: %s", cfg.Index.Backend)
	}
}

func buildCatalog(cfg *Config, kv core.KeyValueStore) (core.CatalogService, error) {
	var cat core.CatalogService

	switch cfg.Catalog.Backend {
	case "none":
		return nil, nil
	case "tmdb":
		cat = catalog.NewTMDBService(cfg.Catalog.APIToken)
	case "feast":
		c, err := catalog.NewFeastService(cfg.Catalog.Host, cfg.Catalog.Port, cfg.Catalog.Project)
		if err != nil {
			return nil, fmt.Errorf("create feast catalog: %w", err)
		}
		cat = c
	default:
		return nil, fmt.Errorf("unknown catalog backend: %s", cfg.Catalog.Backend)
	}

	if cfg.Catalog.Cache {
		cat = catalog.NewCachedService(cat, kv)
	}
	return cat, nil
}
