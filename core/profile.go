package core

import (
	"sort"
	"time"
)

// Outcome 是一次评分的结果状态。
type Outcome string

const (
	OutcomeLiked    Outcome = "liked"
	OutcomeDisliked Outcome = "disliked"
	OutcomeNeutral  Outcome = "neutral"
)

// ValidOutcome 检查评分取值是否合法。
func ValidOutcome(o Outcome) bool {
	switch o {
	case OutcomeLiked, OutcomeDisliked, OutcomeNeutral:
		return true
	default:
		return false
	}
}

// IDSet 是影片 ID 集合（插入顺序无意义）。
type IDSet map[string]struct{}

func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s IDSet) Add(id string)    { s[id] = struct{}{} }
func (s IDSet) Remove(id string) { delete(s, id) }

// Union 将 other 并入当前集合。
func (s IDSet) Union(other IDSet) {
	for id := range other {
		s[id] = struct{}{}
	}
}

// AffinityRecord 是用户口味画像的核心抽象。
//
// 一句话定义：用户画像 = 类型偏好 + 关键词亲和度 + 交互历史。
//
// 设计要点：
//  维度            作用
//  GenrePrefs      过滤条件 + Embedding 文本（用户声明，非学习所得）
//  KeywordCounts   重排信号（liked 事件单调累加，永不递减）
//  五个交互集合     状态机 + 排除集合
//
// 状态机（对单个影片 ID）：
//  Unrated → {Liked, Disliked, Neutral}，三态互斥且可互相直接迁移；
//  Watchlist 是独立于评分状态的正交开关；
//  Shown / History 是单向标志，本引擎从不清除。
type AffinityRecord struct {
	ID   string
	Name string

	// GenrePrefs 是用户声明的类型偏好（决定 Embedding 文本与默认过滤条件）
	GenrePrefs []string

	// KeywordCounts 是关键词出现次数（liked 事件累加，重排信号来源）
	KeywordCounts map[string]int

	// 交互集合
	Liked     IDSet
	Disliked  IDSet
	Neutral   IDSet
	Watchlist IDSet
	History   IDSet
	Shown     IDSet

	// 元数据
	UpdateTime time.Time
}

// NewAffinityRecord 创建一个空画像（首次初始化时调用）。
func NewAffinityRecord(id string) *AffinityRecord {
	return &AffinityRecord{
		ID:            id,
		GenrePrefs:    make([]string, 0),
		KeywordCounts: make(map[string]int),
		Liked:         make(IDSet),
		Disliked:      make(IDSet),
		Neutral:       make(IDSet),
		Watchlist:     make(IDSet),
		History:       make(IDSet),
		Shown:         make(IDSet),
		UpdateTime:    time.Now(),
	}
}

// Rate 把 movieID 迁入 outcome 对应的评分集合，并从另外两个评分集合移除
// （三态互斥），同时并入 History 与 Shown（已评分蕴含已观看、已曝光）。
// 幂等：同一 outcome 重复评分不产生可观测变化。
func (r *AffinityRecord) Rate(movieID string, outcome Outcome) error {
	if movieID == "" || !ValidOutcome(outcome) {
		return ErrInvalidTransition
	}

	r.Liked.Remove(movieID)
	r.Disliked.Remove(movieID)
	r.Neutral.Remove(movieID)

	switch outcome {
	case OutcomeLiked:
		r.Liked.Add(movieID)
	case OutcomeDisliked:
		r.Disliked.Add(movieID)
	case OutcomeNeutral:
		r.Neutral.Add(movieID)
	}

	r.History.Add(movieID)
	r.Shown.Add(movieID)
	r.UpdateTime = time.Now()
	return nil
}

// RatingOf 返回影片当前的评分状态，未评分返回 ("", false)。
func (r *AffinityRecord) RatingOf(movieID string) (Outcome, bool) {
	switch {
	case r.Liked.Has(movieID):
		return OutcomeLiked, true
	case r.Disliked.Has(movieID):
		return OutcomeDisliked, true
	case r.Neutral.Has(movieID):
		return OutcomeNeutral, true
	default:
		return "", false
	}
}

// ToggleWatchlist 添加或移除想看清单条目。只操作 Watchlist，
// 不触碰评分集合与 History/Shown。
func (r *AffinityRecord) ToggleWatchlist(movieID string, add bool) error {
	if movieID == "" {
		return ErrInvalidTransition
	}
	if add {
		r.Watchlist.Add(movieID)
	} else {
		r.Watchlist.Remove(movieID)
	}
	r.UpdateTime = time.Now()
	return nil
}

// MarkShown 将一批影片 ID 并入 Shown（客户端曝光同步）。
func (r *AffinityRecord) MarkShown(movieIDs []string) {
	for _, id := range movieIDs {
		if id == "" {
			continue
		}
		r.Shown.Add(id)
	}
	r.UpdateTime = time.Now()
}

// AccumulateKeywords 为每个关键词的计数加 1（不存在则从 1 开始）。
// 只在 liked 事件上调用；计数只增不减，重新评分不回退历史计数。
func (r *AffinityRecord) AccumulateKeywords(keywords []string) {
	if r.KeywordCounts == nil {
		r.KeywordCounts = make(map[string]int)
	}
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		r.KeywordCounts[kw]++
	}
	r.UpdateTime = time.Now()
}

// TopKeywords 返回按计数降序排列的至多 n 个关键词名。
// 计数相同时按字典序升序决出稳定次序（原始行为未指定，此处固定为字典序）。
func (r *AffinityRecord) TopKeywords(n int) []string {
	if n <= 0 || len(r.KeywordCounts) == 0 {
		return nil
	}

	keywords := make([]string, 0, len(r.KeywordCounts))
	for kw := range r.KeywordCounts {
		keywords = append(keywords, kw)
	}
	sort.Slice(keywords, func(i, j int) bool {
		ci, cj := r.KeywordCounts[keywords[i]], r.KeywordCounts[keywords[j]]
		if ci != cj {
			return ci > cj
		}
		return keywords[i] < keywords[j]
	})

	if len(keywords) > n {
		keywords = keywords[:n]
	}
	return keywords
}

// ExcludeIDs 返回检索排除集合：shown ∪ liked ∪ disliked ∪ watchlist ∪ history。
// 这是一个超集安全的并集（neutral ⊆ history ∩ shown，因此无需单列）。
func (r *AffinityRecord) ExcludeIDs() IDSet {
	out := make(IDSet, len(r.Shown)+len(r.Watchlist))
	out.Union(r.Shown)
	out.Union(r.Liked)
	out.Union(r.Disliked)
	out.Union(r.Watchlist)
	out.Union(r.History)
	return out
}

// SetGenres 覆盖类型偏好。返回偏好是否发生变化（变化时需要重新 Embedding）。
func (r *AffinityRecord) SetGenres(genres []string) bool {
	if equalStrings(r.GenrePrefs, genres) {
		return false
	}
	r.GenrePrefs = append([]string(nil), genres...)
	r.UpdateTime = time.Now()
	return true
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
