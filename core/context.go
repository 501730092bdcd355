package core

// RecommendContext 承载单次推荐请求的用户/参数信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserID string

	// Profile 是已加载的用户画像（冷用户可能为 nil，此时只有过滤条件生效）
	Profile *AffinityRecord

	// TopK 期望返回的结果数
	TopK int

	// ExcludeIDs 是本次请求的排除集合（shown ∪ liked ∪ disliked ∪ watchlist ∪ history）
	ExcludeIDs IDSet

	// UserKeywords 是重排使用的用户 Top 关键词集合
	UserKeywords map[string]struct{}

	// Params 请求级上下文参数（调试标志、AB 信息等）
	Params map[string]any
}

// KeywordSet 把关键词列表转为集合，供重排阶段 O(1) 判交。
func KeywordSet(keywords []string) map[string]struct{} {
	if len(keywords) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		set[kw] = struct{}{}
	}
	return set
}
