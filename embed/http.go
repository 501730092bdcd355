package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rushteam/flickrec/core"
)

// HTTPService 是 Embedding 推理服务的 HTTP 客户端实现。
//
// 对接 text-embeddings 风格的推理服务（如 TEI / sentence-transformers 服务化部署），
// 默认模型为 all-MiniLM-L6-v2（输出维度 384，与影片索引建库时保持一致）。
//
// 请求格式：
//
//	POST {endpoint}/embed
//	{"model": "all-MiniLM-L6-v2", "input": ["text"]}
//
// 响应格式：
//
//	{"embeddings": [[0.1, 0.2, ...]]}
//
// 所有网络/服务端错误统一归一为 EMBEDDING_UNAVAILABLE 领域错误，
// 写路径（画像 Embedding 物化）据此 fail closed。
type HTTPService struct {
	Endpoint  string
	Model     string
	Dim       int
	Timeout   int
	AuthToken string

	httpClient *http.Client
}

// NewHTTPService 创建一个新的 Embedding HTTP 客户端实例。
func NewHTTPService(endpoint string, opts ...Option) *HTTPService {
	service := &HTTPService{
		Endpoint: endpoint,
		Model:    "all-MiniLM-L6-v2",
		Dim:      384,
		Timeout:  30,
	}

	for _, opt := range opts {
		opt(service)
	}

	service.httpClient = &http.Client{
		Timeout: time.Duration(service.Timeout) * time.Second,
	}

	return service
}

type Option func(*HTTPService)

func WithModel(model string, dim int) Option {
	return func(s *HTTPService) {
		s.Model = model
		s.Dim = dim
	}
}

func WithTimeout(timeout int) Option {
	return func(s *HTTPService) {
		s.Timeout = timeout
	}
}

func WithAuthToken(token string) Option {
	return func(s *HTTPService) {
		s.AuthToken = token
	}
}

// Embed 将文本编码为语义向量。
func (s *HTTPService) Embed(ctx context.Context, text string) ([]float64, error) {
	if text == "" {
		return nil, core.NewDomainError(core.ModuleEmbedding, core.ErrorCodeInvalidInput, "embedding: text is empty")
	}

	payload, err := json.Marshal(map[string]any{
		"model": s.Model,
		"input": []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint+"/embed", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.AuthToken)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, embeddingUnavailable(fmt.Sprintf("embed request failed: %v", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, embeddingUnavailable(fmt.Sprintf("read embed response: %v", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, embeddingUnavailable(fmt.Sprintf("embedding service returned status %d", resp.StatusCode))
	}

	var result struct {
		Embeddings [][]float64 `json:"embeddings"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, embeddingUnavailable(fmt.Sprintf("decode embed response: %v", err))
	}
	if len(result.Embeddings) == 0 || len(result.Embeddings[0]) == 0 {
		return nil, embeddingUnavailable("embedding service returned empty result")
	}

	vector := result.Embeddings[0]
	if s.Dim > 0 && len(vector) != s.Dim {
		return nil, embeddingUnavailable(fmt.Sprintf("embedding dimension mismatch: got %d, want %d", len(vector), s.Dim))
	}
	return vector, nil
}

// Dimension 返回输出向量维度。
func (s *HTTPService) Dimension() int {
	return s.Dim
}

func (s *HTTPService) Close() error {
	return nil
}

// embeddingUnavailable 把底层传输错误归一为 EMBEDDING_UNAVAILABLE 领域错误。
func embeddingUnavailable(message string) error {
	return core.NewDomainError(core.ModuleEmbedding, core.ErrorCodeEmbeddingUnavailable, "embedding: "+message)
}

var _ core.EmbeddingService = (*HTTPService)(nil)
