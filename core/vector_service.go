package core

import "context"

// VectorIndexService 是相似度索引的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（vector）实现
//   - ANN 内部结构、持久化均为协作方职责，引擎只依赖此契约
//
// 契约：
//   - Query 返回按距离升序排列的命中（距离越小越相似）
//   - Upsert / Get 以 id 为主键（影片集合存影片，用户集合存画像 Embedding）
//   - 不可达时返回 ErrIndexUnavailable（实现方负责归一化底层错误）
//
// 实现：
//   - vector.MemoryService（内存精确检索，测试/示例用）
//   - vector.ChromaService（Chroma REST 后端，生产部署用）
type VectorIndexService interface {
	// Query 执行一次最近邻查询，结果按距离升序
	Query(ctx context.Context, req *VectorQueryRequest) (*VectorQueryResult, error)

	// Upsert 写入或覆盖一条向量记录
	Upsert(ctx context.Context, req *VectorUpsertRequest) error

	// Get 读取一条向量记录，不存在返回 ErrStoreNotFound
	Get(ctx context.Context, collection, id string) (*VectorRecord, error)

	// Close 关闭连接
	Close() error
}

// MetadataFilter 是检索的结构化过滤条件。
// 组合规则：所有存在的子条件按 AND 组合；全部缺省表示不加 where 子句。
type MetadataFilter struct {
	// Genres 按 is_<genre> 布尔标志做 OR 组合；单个类型退化为直接相等
	Genres []string

	// Language 对语言代码字段做精确相等（为空则不参与）
	Language string

	// MinYear 对 year 字段做闭区间下界（0 则不参与）
	MinYear int
}

// Empty 检查过滤条件是否为空（空条件意味着无限制查询）。
func (f *MetadataFilter) Empty() bool {
	return f == nil || (len(f.Genres) == 0 && f.Language == "" && f.MinYear == 0)
}

// VectorQueryRequest 最近邻查询请求
type VectorQueryRequest struct {
	// Collection 集合名称
	Collection string

	// Vector 查询向量（维度 D 由部署固定）
	Vector []float64

	// TopK 返回 TopK 个最相似的结果
	TopK int

	// Filter 结构化过滤条件（可选）
	Filter *MetadataFilter
}

// VectorHit 单条查询命中
type VectorHit struct {
	ID       string
	Distance float64        // 距离，升序排列
	Metadata map[string]any // 索引侧元数据（payload、language、year、is_<genre> 标志）
	Document string         // 建索引时的原始文本（可选）
}

// VectorQueryResult 查询结果
type VectorQueryResult struct {
	// Hits 命中列表（按距离升序，即索引原生序）
	Hits []VectorHit
}

// VectorUpsertRequest 向量写入请求
type VectorUpsertRequest struct {
	Collection string
	ID         string
	Vector     []float64
	Metadata   map[string]any
	Document   string
}

// VectorRecord 一条已存储的向量记录
type VectorRecord struct {
	ID       string
	Vector   []float64
	Metadata map[string]any
	Document string
}
