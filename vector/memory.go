package vector

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/rushteam/flickrec/core"
)

// MemoryService 是内存实现的 VectorIndexService，用于测试/开发/示例。
//
// 精确检索（暴力扫描），余弦距离（与 Chroma 集合的默认度量一致）。
// 结构化过滤条件在扫描时按元数据求值，语义与 BuildWhere 编译出的
// where 子句一致。
type MemoryService struct {
	mu          sync.RWMutex
	collections map[string]map[string]*core.VectorRecord
}

func NewMemoryService() *MemoryService {
	return &MemoryService{
		collections: make(map[string]map[string]*core.VectorRecord),
	}
}

func (s *MemoryService) Query(ctx context.Context, req *core.VectorQueryRequest) (*core.VectorQueryResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coll := s.collections[req.Collection]
	topK := req.TopK
	if topK <= 0 {
		topK = 10
	}

	hits := make([]core.VectorHit, 0, len(coll))
	for _, record := range coll {
		if !matchFilter(req.Filter, record.Metadata) {
			continue
		}
		hits = append(hits, core.VectorHit{
			ID:       record.ID,
			Distance: cosineDistance(req.Vector, record.Vector),
			Metadata: record.Metadata,
			Document: record.Document,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}

	return &core.VectorQueryResult{Hits: hits}, nil
}

func (s *MemoryService) Upsert(ctx context.Context, req *core.VectorUpsertRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.collections[req.Collection]
	if !ok {
		coll = make(map[string]*core.VectorRecord)
		s.collections[req.Collection] = coll
	}

	vec := make([]float64, len(req.Vector))
	copy(vec, req.Vector)

	coll[req.ID] = &core.VectorRecord{
		ID:       req.ID,
		Vector:   vec,
		Metadata: req.Metadata,
		Document: req.Document,
	}
	return nil
}

func (s *MemoryService) Get(ctx context.Context, collection, id string) (*core.VectorRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coll, ok := s.collections[collection]
	if !ok {
		return nil, core.ErrStoreNotFound
	}
	record, ok := coll[id]
	if !ok {
		return nil, core.ErrStoreNotFound
	}
	return record, nil
}

func (s *MemoryService) Close() error {
	return nil
}

// matchFilter 按 MetadataFilter 的语义对单条记录的元数据求值。
func matchFilter(filter *core.MetadataFilter, metadata map[string]any) bool {
	if filter.Empty() {
		return true
	}

	if len(filter.Genres) > 0 {
		matched := false
		for _, g := range filter.Genres {
			if flag, ok := metadata["is_"+g].(bool); ok && flag {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if filter.Language != "" {
		lang, _ := metadata["language"].(string)
		if lang != filter.Language {
			return false
		}
	}

	if filter.MinYear > 0 {
		year, ok := metadataYear(metadata["year"])
		if !ok || year < filter.MinYear {
			return false
		}
	}

	return true
}

func metadataYear(v any) (int, bool) {
	switch y := v.(type) {
	case int:
		return y, true
	case int64:
		return int(y), true
	case float64:
		return int(y), true
	}
	return 0, false
}

func cosineDistance(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 1.0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 1.0
	}
	return 1.0 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

var _ core.VectorIndexService = (*MemoryService)(nil)
