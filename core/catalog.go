package core

import "context"

// MovieDetail 是目录协作方返回的影片元数据。
type MovieDetail struct {
	ID       string
	Title    string
	Genres   []string
	Keywords []string
	Language string
	Year     int // 0 表示未知

	// Extra 透传字段（backdrop_path 等），引擎不解释
	Extra map[string]any
}

// CatalogService 是影片目录协作方的领域接口。
//
// 使用场景：
//   - liked 事件后的关键词富化（尽力而为，失败只记录不传播）
//   - 建索引时的元数据来源（建索引流程在引擎之外）
//
// 实现：
//   - catalog.TMDBService（TMDB REST API）
//   - catalog.FeastService（Feast 在线特征存储）
//   - catalog.CachedService（读穿缓存装饰器）
type CatalogService interface {
	// MovieDetails 获取影片详情（含类型/语言/年份）
	MovieDetails(ctx context.Context, movieID string) (*MovieDetail, error)

	// MovieKeywords 获取影片关键词名列表
	MovieKeywords(ctx context.Context, movieID string) ([]string, error)

	// Close 关闭连接
	Close() error
}
