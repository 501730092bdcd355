package recall

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rushteam/flickrec/core"
	"github.com/rushteam/flickrec/pipeline"
)

// 自适应取数参数：排除步骤在查询之后做，取数池必须足够宽，
// 保证排除后仍能凑满 topK；加法缓冲吸收类型/关键词稀疏，上下界约束索引查询成本。
const (
	// FetchBuffer 是加法缓冲
	FetchBuffer = 200
	// FetchMin 是单次查询的下界
	FetchMin = 250
	// FetchMax 是单次查询的上界
	FetchMax = 3000
)

// FetchK 计算自适应取数大小：clamp(excludeCount + topK + 200, 250, 3000)。
// 对 excludeCount 与 topK 均单调不减。
func FetchK(excludeCount, topK int) int {
	k := excludeCount + topK + FetchBuffer
	if k < FetchMin {
		k = FetchMin
	}
	if k > FetchMax {
		k = FetchMax
	}
	return k
}

// Fetcher 是相似度索引召回源：按用户 Embedding 做一次最近邻查询，
// 返回索引原生序（距离升序）的原始候选列表，不在本阶段重排。
//
// 每次请求构造一个实例（字段承载请求态，参照 Node 字段式配置）。
type Fetcher struct {
	Index      core.VectorIndexService
	Collection string

	Vector       []float64            // 用户画像 Embedding
	Filter       *core.MetadataFilter // 结构化过滤条件（可为空）
	TopK         int                  // 期望返回数（用于计算取数池）
	ExcludeCount int                  // 排除集合大小（用于计算取数池）
}

func (f *Fetcher) Name() string { return "recall.similarity" }

func (f *Fetcher) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 执行索引查询。索引不可达时返回 ErrIndexUnavailable，
// 不在内部重试（重试策略属于外层协作方）。
func (f *Fetcher) Process(
	ctx context.Context,
	_ *core.RecommendContext,
	_ []*core.Candidate,
) ([]*core.Candidate, error) {
	if f.Index == nil || len(f.Vector) == 0 {
		return nil, nil
	}

	result, err := f.Index.Query(ctx, &core.VectorQueryRequest{
		Collection: f.Collection,
		Vector:     f.Vector,
		TopK:       FetchK(f.ExcludeCount, f.TopK),
		Filter:     f.Filter,
	})
	if err != nil {
		if core.IsIndexUnavailable(err) {
			return nil, err
		}
		return nil, fmt.Errorf("similarity query: %w", err)
	}

	out := make([]*core.Candidate, 0, len(result.Hits))
	for i := range result.Hits {
		out = append(out, CandidateFromHit(&result.Hits[i]))
	}
	return out, nil
}

// CandidateFromHit 把一条索引命中转换为候选记录。
// 索引元数据约定（建索引时写入）：
//   - "payload"：影片原始 JSON（title、genres、keywords、backdrop_path ...）
//   - "language"：语言代码
//   - "year"：发行年份（int）
//   - "is_<genre>"：类型布尔标志（过滤用，此处不再解析）
func CandidateFromHit(hit *core.VectorHit) *core.Candidate {
	c := core.NewCandidate(hit.ID, hit.Distance)

	if lang, ok := hit.Metadata["language"].(string); ok {
		c.Language = lang
	}
	switch y := hit.Metadata["year"].(type) {
	case int:
		c.Year = y
	case int64:
		c.Year = int(y)
	case float64:
		c.Year = int(y)
	}

	if raw, ok := hit.Metadata["payload"].(string); ok && raw != "" {
		var payload map[string]any
		if err := json.Unmarshal([]byte(raw), &payload); err == nil {
			c.Payload = payload
			c.Genres = namesOf(payload["genres"])
			c.Keywords = namesOf(payload["keywords"])
		}
	}
	return c
}

// namesOf 提取名字列表：元素既可能是字符串，也可能是带 name 字段的对象
// （目录 API 的 genres/keywords 都是对象列表，旧索引里存过纯字符串）。
func namesOf(v any) []string {
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		switch t := item.(type) {
		case string:
			out = append(out, t)
		case map[string]any:
			if name, ok := t["name"].(string); ok && name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}
