package pipeline

import (
	"context"

	"github.com/rushteam/flickrec/core"
)

// Kind 用于标记 Node 类型，方便观测/治理/编排（例如按阶段打点）。
type Kind string

const (
	KindRecall Kind = "recall" // 召回阶段：查询相似度索引生成候选集
	KindFilter Kind = "filter" // 过滤阶段：剔除排除集合与不符合约束的候选
	KindReRank Kind = "rerank" // 重排阶段：关键词交集重排 + TopK 截断
)

// Node 是 Pipeline 的最小可扩展单元。
// 统一采用“输入 candidates -> 输出 candidates”的形态，
// 方便 Recall 生成、Filter 截断、ReRank 重排等操作。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RecommendContext,
		candidates []*core.Candidate,
	) ([]*core.Candidate, error)
}
