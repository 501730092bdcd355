package filter

import (
	"context"

	"github.com/rushteam/flickrec/core"
)

// ExcludeFilter 过滤掉排除集合中的候选。
//
// 排除集合是 shown ∪ liked ∪ disliked ∪ watchlist ∪ history 的并集，
// 由编排层按请求时刻的画像计算后放入 rctx.ExcludeIDs。
// 排除必须是精确匹配：误杀会让推荐流漏掉合法候选，漏杀会产生重复推荐。
type ExcludeFilter struct{}

func NewExcludeFilter() *ExcludeFilter {
	return &ExcludeFilter{}
}

func (f *ExcludeFilter) Name() string {
	return "filter.exclude"
}

func (f *ExcludeFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	c *core.Candidate,
) (bool, error) {
	if c == nil {
		return true, nil
	}
	if rctx == nil || len(rctx.ExcludeIDs) == 0 {
		return false, nil
	}
	return rctx.ExcludeIDs.Has(c.ID), nil
}
