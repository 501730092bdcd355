package rerank

import (
	"context"

	"github.com/rushteam/flickrec/core"
	"github.com/rushteam/flickrec/pipeline"
)

// TopNNode 是一个 Top-N 截断节点，用于在重排后截取前 N 个候选。
//
// 存活候选不足 N 时返回全部存活者：不补齐、不二次取数
// （刻意的简化取舍，宽取数池已把这种情况压到罕见）。
type TopNNode struct {
	// N 要保留的候选数量（Top N）
	// 如果 N <= 0，则返回所有候选（不截断）
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	candidates []*core.Candidate,
) ([]*core.Candidate, error) {
	if n.N <= 0 {
		return candidates, nil
	}
	if len(candidates) <= n.N {
		return candidates, nil
	}
	return candidates[:n.N], nil
}
