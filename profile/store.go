package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/flickrec/core"
)

// recordVersion 是当前的持久化格式版本。
const recordVersion = 2

// keyPrefix 是画像在 core.Store 中的 key 前缀，实际 key 为 profile:{userID}。
const keyPrefix = "profile:"

// Store 负责 AffinityRecord 的持久化。
//
// 设计要点：
//   - 单一版本化记录格式 + 加载时一次性迁移旧格式
//     （旧格式：数组包裹的画像文件、history/data 两代字段名、关键词列表）
//   - 每用户互斥锁串行化 read-modify-write（并发评分同一用户不丢更新）
//   - 每次 Save 是一次原子写：要么整条记录落盘，要么不落
type Store struct {
	store  core.Store
	logger zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore 创建一个画像存储。
func NewStore(backend core.Store, logger zerolog.Logger) *Store {
	return &Store{
		store:  backend,
		logger: logger.With().Str("component", "profile").Logger(),
		locks:  make(map[string]*sync.Mutex),
	}
}

// userLock 返回指定用户的互斥锁（首次访问时创建）。
func (s *Store) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}

// Load 读取用户画像，不存在返回 ErrProfileNotFound。
// 旧格式在此处迁移为当前版本（只迁移内存表示，下次 Save 时落盘）。
func (s *Store) Load(ctx context.Context, userID string) (*core.AffinityRecord, error) {
	data, err := s.store.Get(ctx, keyPrefix+userID)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, core.ErrProfileNotFound
		}
		return nil, fmt.Errorf("profile load %s: %w", userID, err)
	}

	record, migrated, err := decodeRecord(userID, data)
	if err != nil {
		return nil, fmt.Errorf("profile decode %s: %w", userID, err)
	}
	if migrated {
		s.logger.Info().Str("user_id", userID).Msg("migrated legacy profile record")
	}
	return record, nil
}

// Exists 检查用户画像是否存在。
func (s *Store) Exists(ctx context.Context, userID string) (bool, error) {
	_, err := s.store.Get(ctx, keyPrefix+userID)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Save 整条写入用户画像。
func (s *Store) Save(ctx context.Context, record *core.AffinityRecord) error {
	data, err := encodeRecord(record)
	if err != nil {
		return fmt.Errorf("profile encode %s: %w", record.ID, err)
	}
	if err := s.store.Set(ctx, keyPrefix+record.ID, data); err != nil {
		return fmt.Errorf("profile save %s: %w", record.ID, err)
	}
	return nil
}

// Create 在用户锁内写入画像（创建或覆盖，/encode 语义）。
func (s *Store) Create(ctx context.Context, record *core.AffinityRecord) error {
	lock := s.userLock(record.ID)
	lock.Lock()
	defer lock.Unlock()

	return s.Save(ctx, record)
}

// Update 在用户锁内执行 read-modify-write：加载、应用 fn、保存。
// fn 返回错误时不落盘（部分应用的变更绝不写出）。
// 画像不存在返回 ErrProfileNotFound。
func (s *Store) Update(ctx context.Context, userID string, fn func(*core.AffinityRecord) error) (*core.AffinityRecord, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	record, err := s.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := fn(record); err != nil {
		return nil, err
	}
	if err := s.Save(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// ---- 持久化格式 ----

// persistedRecord 是当前（version 2）的落盘格式。
// 集合序列化为排序后的列表，保证输出确定性。
type persistedRecord struct {
	Version       int                   `json:"version"`
	ID            string                `json:"id"`
	Name          string                `json:"name,omitempty"`
	Genres        []string              `json:"genres"`
	KeywordCounts map[string]int        `json:"keyword_counts"`
	Interactions  persistedInteractions `json:"interactions"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

type persistedInteractions struct {
	Liked     []string `json:"liked"`
	Disliked  []string `json:"disliked"`
	Neutral   []string `json:"neutral"`
	Watchlist []string `json:"watchlist"`
	History   []string `json:"history"`
	Shown     []string `json:"shown"`
}

func encodeRecord(record *core.AffinityRecord) ([]byte, error) {
	p := persistedRecord{
		Version:       recordVersion,
		ID:            record.ID,
		Name:          record.Name,
		Genres:        record.GenrePrefs,
		KeywordCounts: record.KeywordCounts,
		Interactions: persistedInteractions{
			Liked:     sortedIDs(record.Liked),
			Disliked:  sortedIDs(record.Disliked),
			Neutral:   sortedIDs(record.Neutral),
			Watchlist: sortedIDs(record.Watchlist),
			History:   sortedIDs(record.History),
			Shown:     sortedIDs(record.Shown),
		},
		UpdatedAt: record.UpdateTime,
	}
	if p.Genres == nil {
		p.Genres = []string{}
	}
	if p.KeywordCounts == nil {
		p.KeywordCounts = map[string]int{}
	}
	return json.Marshal(p)
}

func sortedIDs(set core.IDSet) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// legacyRecord 覆盖历史上出现过的所有旧格式字段：
//   - "data"：liked/disliked/neutral/watchlist/history/shown 六集合
//   - "history"：更早的 liked/disliked/watchlist/seen 四集合（seen = history+shown）
//   - "keywords"：关键词列表（迁移为计数 1 的 map）
type legacyRecord struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Genres  []string `json:"genres"`
	Version int      `json:"version"`

	KeywordCounts map[string]int `json:"keyword_counts"`
	Keywords      []string       `json:"keywords"`

	Interactions *persistedInteractions `json:"interactions"`
	Data         *persistedInteractions `json:"data"`
	History      *struct {
		Liked     []string `json:"liked"`
		Disliked  []string `json:"disliked"`
		Watchlist []string `json:"watchlist"`
		Seen      []string `json:"seen"`
	} `json:"history"`

	UpdatedAt time.Time `json:"updated_at"`
}

// decodeRecord 解码一条画像记录，旧格式一次性迁移为当前内存表示。
// 返回的 migrated 标记仅用于日志。
func decodeRecord(userID string, data []byte) (*core.AffinityRecord, bool, error) {
	// 旧磁盘文件可能是数组包裹的单元素画像
	trimmed := firstNonSpace(data)
	if trimmed == '[' {
		var wrapped []json.RawMessage
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, false, err
		}
		if len(wrapped) == 0 {
			return nil, false, fmt.Errorf("empty profile array")
		}
		record, _, err := decodeRecord(userID, wrapped[0])
		return record, true, err
	}

	var raw legacyRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false, err
	}

	record := core.NewAffinityRecord(userID)
	if raw.ID != "" {
		record.ID = raw.ID
	}
	record.Name = raw.Name
	if len(raw.Genres) > 0 {
		record.GenrePrefs = append([]string(nil), raw.Genres...)
	}
	if !raw.UpdatedAt.IsZero() {
		record.UpdateTime = raw.UpdatedAt
	}

	migrated := raw.Version != recordVersion

	switch {
	case raw.KeywordCounts != nil:
		record.KeywordCounts = raw.KeywordCounts
	case len(raw.Keywords) > 0:
		// 关键词列表 → 计数 map（每个计 1）
		record.AccumulateKeywords(raw.Keywords)
		migrated = true
	}

	switch {
	case raw.Interactions != nil:
		fillSets(record, raw.Interactions)
	case raw.Data != nil:
		fillSets(record, raw.Data)
		migrated = true
	case raw.History != nil:
		// 四集合格式：seen 同时充当 history 与 shown
		record.Liked = core.NewIDSet(raw.History.Liked...)
		record.Disliked = core.NewIDSet(raw.History.Disliked...)
		record.Watchlist = core.NewIDSet(raw.History.Watchlist...)
		record.History = core.NewIDSet(raw.History.Seen...)
		record.Shown = core.NewIDSet(raw.History.Seen...)
		migrated = true
	}

	return record, migrated, nil
}

func fillSets(record *core.AffinityRecord, in *persistedInteractions) {
	record.Liked = core.NewIDSet(in.Liked...)
	record.Disliked = core.NewIDSet(in.Disliked...)
	record.Neutral = core.NewIDSet(in.Neutral...)
	record.Watchlist = core.NewIDSet(in.Watchlist...)
	record.History = core.NewIDSet(in.History...)
	record.Shown = core.NewIDSet(in.Shown...)
}

func firstNonSpace(data []byte) byte {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return b
		}
	}
	return 0
}
