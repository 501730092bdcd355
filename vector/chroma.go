package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rushteam/flickrec/core"
)

// ChromaService 是 Chroma 向量数据库的 VectorIndexService 实现（HTTP REST API）。
//
// 集合按名称访问，内部解析为集合 ID 并缓存。
// 所有网络/服务端错误统一归一为 core.ErrIndexUnavailable，
// 上层读路径据此 fail closed（宁可报错，不给劣质推荐）。
type ChromaService struct {
	Endpoint string
	Tenant   string
	Database string
	Timeout  int

	httpClient *http.Client

	mu            sync.RWMutex
	collectionIDs map[string]string
}

// NewChromaService 创建一个新的 Chroma 服务实例。
func NewChromaService(endpoint string, opts ...ChromaOption) *ChromaService {
	service := &ChromaService{
		Endpoint:      endpoint,
		Tenant:        "default_tenant",
		Database:      "default_database",
		Timeout:       30,
		collectionIDs: make(map[string]string),
	}

	for _, opt := range opts {
		opt(service)
	}

	service.httpClient = &http.Client{
		Timeout: time.Duration(service.Timeout) * time.Second,
	}

	return service
}

type ChromaOption func(*ChromaService)

func WithChromaTimeout(timeout int) ChromaOption {
	return func(s *ChromaService) {
		s.Timeout = timeout
	}
}

func WithChromaTenant(tenant, database string) ChromaOption {
	return func(s *ChromaService) {
		s.Tenant = tenant
		s.Database = database
	}
}

// Query 向量相似检索。请求里的 Filter 会被编译为 Chroma 的 where 子句。
func (s *ChromaService) Query(ctx context.Context, req *core.VectorQueryRequest) (*core.VectorQueryResult, error) {
	if req.Collection == "" {
		return nil, fmt.Errorf("collection name is required")
	}
	if len(req.Vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if req.TopK <= 0 {
		req.TopK = 10
	}

	collID, err := s.resolveCollection(ctx, req.Collection)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"query_embeddings": [][]float64{req.Vector},
		"n_results":        req.TopK,
		"include":          []string{"metadatas", "documents", "distances"},
	}
	if where := BuildWhere(req.Filter); where != nil {
		body["where"] = where
	}

	var resp struct {
		IDs       [][]string         `json:"ids"`
		Distances [][]float64        `json:"distances"`
		Metadatas [][]map[string]any `json:"metadatas"`
		Documents [][]string         `json:"documents"`
	}
	if err := s.post(ctx, fmt.Sprintf("/collections/%s/query", collID), body, &resp); err != nil {
		return nil, err
	}

	result := &core.VectorQueryResult{}
	if len(resp.IDs) == 0 {
		return result, nil
	}

	ids := resp.IDs[0]
	result.Hits = make([]core.VectorHit, 0, len(ids))
	for i, id := range ids {
		hit := core.VectorHit{ID: id}
		if len(resp.Distances) > 0 && i < len(resp.Distances[0]) {
			hit.Distance = resp.Distances[0][i]
		}
		if len(resp.Metadatas) > 0 && i < len(resp.Metadatas[0]) {
			hit.Metadata = resp.Metadatas[0][i]
		}
		if len(resp.Documents) > 0 && i < len(resp.Documents[0]) {
			hit.Document = resp.Documents[0][i]
		}
		result.Hits = append(result.Hits, hit)
	}
	return result, nil
}

// Upsert 写入或覆盖一条向量记录。
func (s *ChromaService) Upsert(ctx context.Context, req *core.VectorUpsertRequest) error {
	if req.Collection == "" {
		return fmt.Errorf("collection name is required")
	}
	if req.ID == "" {
		return fmt.Errorf("id is required")
	}
	if len(req.Vector) == 0 {
		return fmt.Errorf("vector is required")
	}

	collID, err := s.resolveCollection(ctx, req.Collection)
	if err != nil {
		return err
	}

	body := map[string]any{
		"ids":        []string{req.ID},
		"embeddings": [][]float64{req.Vector},
	}
	if req.Metadata != nil {
		body["metadatas"] = []map[string]any{req.Metadata}
	}
	if req.Document != "" {
		body["documents"] = []string{req.Document}
	}

	return s.post(ctx, fmt.Sprintf("/collections/%s/upsert", collID), body, nil)
}

// Get 按 ID 读取一条向量记录；不存在时返回 core.ErrStoreNotFound。
func (s *ChromaService) Get(ctx context.Context, collection, id string) (*core.VectorRecord, error) {
	if collection == "" {
		return nil, fmt.Errorf("collection name is required")
	}
	if id == "" {
		return nil, fmt.Errorf("id is required")
	}

	collID, err := s.resolveCollection(ctx, collection)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"ids":     []string{id},
		"include": []string{"embeddings", "metadatas", "documents"},
	}

	var resp struct {
		IDs        []string         `json:"ids"`
		Embeddings [][]float64      `json:"embeddings"`
		Metadatas  []map[string]any `json:"metadatas"`
		Documents  []string         `json:"documents"`
	}
	if err := s.post(ctx, fmt.Sprintf("/collections/%s/get", collID), body, &resp); err != nil {
		return nil, err
	}

	if len(resp.IDs) == 0 {
		return nil, core.ErrStoreNotFound
	}

	record := &core.VectorRecord{ID: resp.IDs[0]}
	if len(resp.Embeddings) > 0 {
		record.Vector = resp.Embeddings[0]
	}
	if len(resp.Metadatas) > 0 {
		record.Metadata = resp.Metadatas[0]
	}
	if len(resp.Documents) > 0 {
		record.Document = resp.Documents[0]
	}
	return record, nil
}

func (s *ChromaService) Close() error {
	return nil
}

// resolveCollection 按名称解析集合 ID（带缓存）。
func (s *ChromaService) resolveCollection(ctx context.Context, name string) (string, error) {
	s.mu.RLock()
	id, ok := s.collectionIDs[name]
	s.mu.RUnlock()
	if ok {
		return id, nil
	}

	var resp struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := s.get(ctx, "/collections/"+name, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", indexUnavailable(fmt.Sprintf("collection %q not found", name))
	}

	s.mu.Lock()
	s.collectionIDs[name] = resp.ID
	s.mu.Unlock()
	return resp.ID, nil
}

func (s *ChromaService) post(ctx context.Context, path string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal chroma request: %w", err)
	}
	return s.do(ctx, http.MethodPost, path, bytes.NewReader(data), out)
}

func (s *ChromaService) get(ctx context.Context, path string, out any) error {
	return s.do(ctx, http.MethodGet, path, nil, out)
}

func (s *ChromaService) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	url := s.Endpoint + "/api/v1" + path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("build chroma request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return indexUnavailable(fmt.Sprintf("chroma request failed: %v", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return indexUnavailable(fmt.Sprintf("read chroma response: %v", err))
	}
	if resp.StatusCode != http.StatusOK {
		return indexUnavailable(fmt.Sprintf("chroma returned status %d: %s", resp.StatusCode, truncate(raw, 200)))
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return indexUnavailable(fmt.Sprintf("decode chroma response: %v", err))
		}
	}
	return nil
}

// indexUnavailable 把底层传输错误归一为 INDEX_UNAVAILABLE 领域错误。
func indexUnavailable(message string) error {
	return core.NewDomainError(core.ModuleIndex, core.ErrorCodeIndexUnavailable, "index: "+message)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

var _ core.VectorIndexService = (*ChromaService)(nil)
