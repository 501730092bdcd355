package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/rushteam/flickrec/core"
	"github.com/rushteam/flickrec/filter"
	"github.com/rushteam/flickrec/pipeline"
	"github.com/rushteam/flickrec/profile"
	"github.com/rushteam/flickrec/recall"
	"github.com/rushteam/flickrec/rerank"
)

// 用户 Top 关键词取数上限（重排信号来源）
const topKeywordLimit = 100

// Engine 是推荐引擎的编排层：组装画像、索引、Embedding、目录四个协作方，
// 对外提供推荐读路径与画像写路径。
//
// 读路径：加载画像 → 解析过滤条件 → 懒物化 Embedding → Pipeline
// （召回 → 过滤 → 重排 → 截断）。
//
// 写路径：评分 / 想看清单 / 曝光同步都走画像存储的用户锁内
// read-modify-write；liked 事件在落盘后旁路触发关键词富化。
type Engine struct {
	// Profiles 画像存储
	Profiles *profile.Store

	// Index 相似度索引（影片集合 + 用户集合）
	Index core.VectorIndexService

	// Embedder Embedding 协作方
	Embedder core.EmbeddingService

	// Catalog 影片目录协作方（关键词富化，可为 nil 表示关闭富化）
	Catalog core.CatalogService

	// MoviesCollection / UsersCollection 索引集合名
	MoviesCollection string
	UsersCollection  string

	// DefaultTopK / MaxTopK 结果数默认值与上限
	DefaultTopK int
	MaxTopK     int

	// EnrichTimeout 旁路富化的独立超时
	EnrichTimeout time.Duration

	// RuleExpr 可选的运营规则表达式（CEL），非空时挂到过滤阶段
	RuleExpr string

	// syncEnrich 同步执行富化（测试用，生产保持异步）
	syncEnrich bool

	logger     zerolog.Logger
	embedGroup singleflight.Group
	ruleFilter *filter.ExprFilter
}

// NewEngine 创建推荐引擎实例。
func NewEngine(profiles *profile.Store, index core.VectorIndexService, embedder core.EmbeddingService, opts ...EngineOption) (*Engine, error) {
	e := &Engine{
		Profiles:         profiles,
		Index:            index,
		Embedder:         embedder,
		MoviesCollection: "movies",
		UsersCollection:  "users",
		DefaultTopK:      10,
		MaxTopK:          50,
		EnrichTimeout:    10 * time.Second,
		logger:           zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.RuleExpr != "" {
		rule, err := filter.NewExprFilter(e.RuleExpr)
		if err != nil {
			return nil, fmt.Errorf("compile rule expr: %w", err)
		}
		e.ruleFilter = rule
	}

	return e, nil
}

type EngineOption func(*Engine)

func WithCatalog(catalog core.CatalogService) EngineOption {
	return func(e *Engine) {
		e.Catalog = catalog
	}
}

func WithCollections(movies, users string) EngineOption {
	return func(e *Engine) {
		e.MoviesCollection = movies
		e.UsersCollection = users
	}
}

func WithTopKLimits(defaultTopK, maxTopK int) EngineOption {
	return func(e *Engine) {
		e.DefaultTopK = defaultTopK
		e.MaxTopK = maxTopK
	}
}

func WithEnrichTimeout(timeout time.Duration) EngineOption {
	return func(e *Engine) {
		e.EnrichTimeout = timeout
	}
}

func WithRuleExpr(expr string) EngineOption {
	return func(e *Engine) {
		e.RuleExpr = expr
	}
}

func WithLogger(logger zerolog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger.With().Str("component", "engine").Logger()
	}
}

// WithSyncEnrich 让 liked 富化同步执行（测试用）。
func WithSyncEnrich() EngineOption {
	return func(e *Engine) {
		e.syncEnrich = true
	}
}

// RecommendRequest 是一次推荐请求的参数。
type RecommendRequest struct {
	UserID string

	// TopK 期望返回数（0 取默认值，超限截到上限）
	TopK int

	// Genres 请求级类型过滤；非空时覆盖画像里的类型偏好
	Genres []string

	// Language 语言代码过滤（可选）
	Language string

	// MinYear 最早发行年份（闭区间下界，0 表示不限）
	MinYear int
}

// RecommendResponse 是推荐结果。
type RecommendResponse struct {
	UserID string
	Movies []*core.Candidate
}

// GetRecommendations 执行一次推荐读路径。
//
// 流程：
//  1. 加载画像（不存在返回 ErrProfileNotFound）
//  2. 计算排除集合与 Top 关键词
//  3. 解析过滤条件（请求类型覆盖画像类型偏好）
//  4. 读取/懒物化用户 Embedding（singleflight 防并发重复编码）
//  5. Pipeline：召回 → 排除过滤（+ 规则过滤）→ 关键词重排 → TopK 截断
//
// 索引或 Embedding 不可用时 fail closed，绝不返回降级结果。
func (e *Engine) GetRecommendations(ctx context.Context, req *RecommendRequest) (*RecommendResponse, error) {
	if req == nil || req.UserID == "" {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput, "service: user id is required")
	}

	topK := req.TopK
	if topK <= 0 {
		topK = e.DefaultTopK
	}
	if e.MaxTopK > 0 && topK > e.MaxTopK {
		topK = e.MaxTopK
	}

	record, err := e.Profiles.Load(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	excludeIDs := record.ExcludeIDs()
	userKeywords := core.KeywordSet(record.TopKeywords(topKeywordLimit))

	genres := req.Genres
	if len(genres) == 0 {
		genres = record.GenrePrefs
	}
	metaFilter := filter.BuildMetadataFilter(genres, req.Language, req.MinYear)

	vector, err := e.userVector(ctx, record)
	if err != nil {
		return nil, err
	}

	rctx := &core.RecommendContext{
		UserID:       req.UserID,
		Profile:      record,
		TopK:         topK,
		ExcludeIDs:   excludeIDs,
		UserKeywords: userKeywords,
	}

	filters := []filter.Filter{filter.NewExcludeFilter()}
	if e.ruleFilter != nil {
		filters = append(filters, e.ruleFilter)
	}

	p := &pipeline.Pipeline{
		Nodes: []pipeline.Node{
			&recall.Fetcher{
				Index:        e.Index,
				Collection:   e.MoviesCollection,
				Vector:       vector,
				Filter:       metaFilter,
				TopK:         topK,
				ExcludeCount: len(excludeIDs),
			},
			&filter.Node{Filters: filters},
			&rerank.KeywordOverlap{},
			&rerank.TopNNode{N: topK},
		},
	}

	movies, err := p.Run(ctx, rctx, nil)
	if err != nil {
		return nil, err
	}

	e.logger.Debug().
		Str("user_id", req.UserID).
		Int("top_k", topK).
		Int("exclude_count", len(excludeIDs)).
		Int("result_count", len(movies)).
		Msg("recommendations served")

	return &RecommendResponse{UserID: req.UserID, Movies: movies}, nil
}

// userVector 读取用户 Embedding，首次读取时懒物化：
// 画像文本 → Embedding → 写入用户集合。
// singleflight 保证同一用户的并发冷读只编码一次。
func (e *Engine) userVector(ctx context.Context, record *core.AffinityRecord) ([]float64, error) {
	stored, err := e.Index.Get(ctx, e.UsersCollection, record.ID)
	if err == nil && len(stored.Vector) > 0 {
		return stored.Vector, nil
	}
	if err != nil && !core.IsStoreNotFound(err) {
		return nil, err
	}

	v, err, _ := e.embedGroup.Do(record.ID, func() (any, error) {
		return e.materializeVector(ctx, record)
	})
	if err != nil {
		return nil, err
	}
	return v.([]float64), nil
}

// materializeVector 物化一次用户 Embedding 并写回索引。
func (e *Engine) materializeVector(ctx context.Context, record *core.AffinityRecord) ([]float64, error) {
	text := profile.BuildProfileText(record)
	if text == "" {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput, "service: profile has no genre preferences to embed")
	}

	vector, err := e.Embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := e.Index.Upsert(ctx, &core.VectorUpsertRequest{
		Collection: e.UsersCollection,
		ID:         record.ID,
		Vector:     vector,
		Document:   text,
	}); err != nil {
		return nil, err
	}

	e.logger.Info().Str("user_id", record.ID).Msg("materialized profile embedding")
	return vector, nil
}

// Rate 提交一次评分。画像更新在用户锁内原子落盘；
// liked 事件在落盘成功后旁路触发关键词富化（失败只记录，不影响评分结果）。
func (e *Engine) Rate(ctx context.Context, userID, movieID string, outcome core.Outcome) error {
	if userID == "" {
		return core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput, "service: user id is required")
	}

	_, err := e.Profiles.Update(ctx, userID, func(record *core.AffinityRecord) error {
		return record.Rate(movieID, outcome)
	})
	if err != nil {
		return err
	}

	if outcome == core.OutcomeLiked {
		e.triggerEnrichment(ctx, userID, movieID)
	}
	return nil
}

// triggerEnrichment 旁路执行关键词富化。
// 用独立 context（剥离调用方取消/超时），富化的生死不影响评分请求。
func (e *Engine) triggerEnrichment(ctx context.Context, userID, movieID string) {
	if e.Catalog == nil {
		return
	}

	detached := context.WithoutCancel(ctx)
	run := func() {
		enrichCtx, cancel := context.WithTimeout(detached, e.EnrichTimeout)
		defer cancel()

		if err := e.enrichKeywords(enrichCtx, userID, movieID); err != nil {
			e.logger.Warn().
				Str("user_id", userID).
				Str("movie_id", movieID).
				Err(err).
				Msg("keyword enrichment failed")
		}
	}

	if e.syncEnrich {
		run()
		return
	}
	go run()
}

// enrichKeywords 拉取影片关键词并累加进画像（用户锁内二次落盘）。
func (e *Engine) enrichKeywords(ctx context.Context, userID, movieID string) error {
	keywords, err := e.Catalog.MovieKeywords(ctx, movieID)
	if err != nil {
		return err
	}
	if len(keywords) == 0 {
		return nil
	}

	_, err = e.Profiles.Update(ctx, userID, func(record *core.AffinityRecord) error {
		record.AccumulateKeywords(keywords)
		return nil
	})
	return err
}

// ToggleWatchlist 添加或移除想看清单条目。
func (e *Engine) ToggleWatchlist(ctx context.Context, userID, movieID string, add bool) error {
	_, err := e.Profiles.Update(ctx, userID, func(record *core.AffinityRecord) error {
		return record.ToggleWatchlist(movieID, add)
	})
	return err
}

// SyncShown 同步客户端曝光：把一批影片 ID 并入 Shown 集合。
func (e *Engine) SyncShown(ctx context.Context, userID string, movieIDs []string) error {
	if len(movieIDs) == 0 {
		return nil
	}
	_, err := e.Profiles.Update(ctx, userID, func(record *core.AffinityRecord) error {
		record.MarkShown(movieIDs)
		return nil
	})
	return err
}

// InitProfileRequest 是画像初始化（/encode 语义）的参数。
type InitProfileRequest struct {
	UserID string
	Name   string

	// Genres 声明的类型偏好
	Genres []string

	// LikedSeeds 种子喜欢影片（同时进 liked/history/shown）
	LikedSeeds []string
}

// InitializeProfile 创建（或覆盖）用户画像并立即物化 Embedding。
// 种子影片会触发关键词富化（尽力而为）。
func (e *Engine) InitializeProfile(ctx context.Context, req *InitProfileRequest) error {
	if req == nil || req.UserID == "" {
		return core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput, "service: user id is required")
	}

	record := core.NewAffinityRecord(req.UserID)
	record.Name = req.Name
	record.SetGenres(req.Genres)
	for _, movieID := range req.LikedSeeds {
		if err := record.Rate(movieID, core.OutcomeLiked); err != nil {
			return err
		}
	}

	if err := e.Profiles.Create(ctx, record); err != nil {
		return err
	}

	if _, err := e.materializeVector(ctx, record); err != nil {
		return err
	}

	for _, movieID := range req.LikedSeeds {
		e.triggerEnrichment(ctx, req.UserID, movieID)
	}
	return nil
}

// UpdateGenres 覆盖类型偏好；发生变化时重新物化 Embedding。
func (e *Engine) UpdateGenres(ctx context.Context, userID string, genres []string) error {
	changed := false
	record, err := e.Profiles.Update(ctx, userID, func(r *core.AffinityRecord) error {
		changed = r.SetGenres(genres)
		return nil
	})
	if err != nil {
		return err
	}

	if changed && profile.NeedsReembed(profile.ChangeGenres) {
		if _, err := e.materializeVector(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

// GetProfile 读取用户画像。
func (e *Engine) GetProfile(ctx context.Context, userID string) (*core.AffinityRecord, error) {
	return e.Profiles.Load(ctx, userID)
}

// Close 依次关闭各协作方连接。
func (e *Engine) Close() error {
	var firstErr error
	if e.Index != nil {
		if err := e.Index.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if e.Embedder != nil {
		if err := e.Embedder.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if e.Catalog != nil {
		if err := e.Catalog.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
