package rerank

import (
	"context"
	"sort"

	"github.com/rushteam/flickrec/core"
	"github.com/rushteam/flickrec/pipeline"
)

// KeywordOverlap 是关键词交集重排节点：按用户 Top 关键词与候选关键词的
// 交集大小重排（确定性规则，非训练打分器）。
//
// 排序键：(-overlap, distance) 升序稳定排序 ——
// 交集大的在前，交集相同时距离小（更相似）的在前，
// 完全相同时保持索引原生序。
//
// 用户关键词集合为空时所有 overlap 为 0，退化为纯距离序。
type KeywordOverlap struct{}

func (n *KeywordOverlap) Name() string {
	return "rerank.keyword_overlap"
}

func (n *KeywordOverlap) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *KeywordOverlap) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	candidates []*core.Candidate,
) ([]*core.Candidate, error) {
	if len(candidates) == 0 {
		return candidates, nil
	}

	var userKeywords map[string]struct{}
	if rctx != nil {
		userKeywords = rctx.UserKeywords
	}

	for _, c := range candidates {
		c.Overlap = c.KeywordOverlap(userKeywords)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Overlap != candidates[j].Overlap {
			return candidates[i].Overlap > candidates[j].Overlap
		}
		return candidates[i].Distance < candidates[j].Distance
	})

	return candidates, nil
}
