package core

// Candidate 是推荐链路中的统一承载结构：一条相似度检索命中。
// Distance 来自向量索引（越小越相似）；Overlap 由重排阶段回写，用于解释与排序。
type Candidate struct {
	ID       string
	Distance float64 // 向量距离，索引原生序为升序
	Overlap  int     // 与用户 Top 关键词的交集大小（重排阶段写入）

	// 索引元数据（过滤与重排信号）
	Genres   []string
	Language string
	Year     int // 0 表示未知
	Keywords []string

	// Payload 是透传元数据（title、backdrop_path 等），本引擎不解释其内容
	Payload map[string]any
}

func NewCandidate(id string, distance float64) *Candidate {
	return &Candidate{
		ID:       id,
		Distance: distance,
		Payload:  make(map[string]any),
	}
}

// HasGenre 检查候选影片是否属于指定类型。
func (c *Candidate) HasGenre(genre string) bool {
	for _, g := range c.Genres {
		if g == genre {
			return true
		}
	}
	return false
}

// KeywordOverlap 计算候选影片关键词与给定关键词集合的交集大小。
// userKeywords 为空时返回 0。
func (c *Candidate) KeywordOverlap(userKeywords map[string]struct{}) int {
	if len(userKeywords) == 0 || len(c.Keywords) == 0 {
		return 0
	}
	n := 0
	for _, kw := range c.Keywords {
		if _, ok := userKeywords[kw]; ok {
			n++
		}
	}
	return n
}
