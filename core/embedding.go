package core

import "context"

// EmbeddingService 是文本向量化协作方的领域接口。
//
// 契约：
//   - 固定模型版本下 Embed 是确定性函数，输出维度 D 由部署固定
//   - 引擎不在本地缓存结果，缓存策略由实现方自行决定
//   - 服务不可用时返回 ErrEmbeddingUnavailable
//
// 实现：
//   - embed.HTTPService（sentence-transformers 风格 REST 服务）
type EmbeddingService interface {
	// Embed 将文本编码为固定维度向量
	Embed(ctx context.Context, text string) ([]float64, error)

	// Dimension 返回向量维度 D
	Dimension() int

	// Close 关闭连接
	Close() error
}
