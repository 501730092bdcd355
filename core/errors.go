package core

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 使用场景：
//   - Profile 错误：PROFILE_NOT_FOUND, INVALID_TRANSITION
//   - Index 错误：INDEX_UNAVAILABLE
//   - Embedding 错误：EMBEDDING_UNAVAILABLE
//   - Catalog 错误：ENRICHMENT_FAILURE（软错误，只记录不传播）
type DomainError struct {
	Code    string // 错误代码（如 "PROFILE_NOT_FOUND", "INDEX_UNAVAILABLE"）
	Message string // 错误消息
	Module  string // 模块名称（如 "profile", "index", "embedding"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// IsDomainError 检查错误是否为 DomainError 类型
func IsDomainError(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*DomainError)
	return ok
}

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	// 通用错误代码
	ErrorCodeNotFound     = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeInvalidInput = "INVALID_INPUT"  // 输入无效
	ErrorCodeInternal     = "INTERNAL_ERROR" // 内部错误

	// 领域错误代码
	ErrorCodeProfileNotFound      = "PROFILE_NOT_FOUND"     // 用户画像不存在
	ErrorCodeIndexUnavailable     = "INDEX_UNAVAILABLE"     // 相似度索引不可用
	ErrorCodeEmbeddingUnavailable = "EMBEDDING_UNAVAILABLE" // Embedding 服务不可用
	ErrorCodeInvalidTransition    = "INVALID_TRANSITION"    // 非法的评分状态迁移
	ErrorCodeEnrichmentFailure    = "ENRICHMENT_FAILURE"    // 关键词富化失败（软错误）
)

// 模块名称常量
const (
	ModuleStore     = "store"     // 存储模块
	ModuleProfile   = "profile"   // 用户画像模块
	ModuleIndex     = "index"     // 向量索引模块
	ModuleEmbedding = "embedding" // Embedding 模块
	ModuleCatalog   = "catalog"   // 影片目录模块
	ModuleService   = "service"   // 服务编排模块
)

// 领域错误定义

var (
	// ErrProfileNotFound 表示目标用户没有已存储的画像
	ErrProfileNotFound = NewDomainError(ModuleProfile, ErrorCodeProfileNotFound, "profile: user profile not found")

	// ErrIndexUnavailable 表示相似度索引无法查询或写入
	ErrIndexUnavailable = NewDomainError(ModuleIndex, ErrorCodeIndexUnavailable, "index: similarity index unavailable")

	// ErrEmbeddingUnavailable 表示 Embedding 服务调用失败
	ErrEmbeddingUnavailable = NewDomainError(ModuleEmbedding, ErrorCodeEmbeddingUnavailable, "embedding: embedding service unavailable")

	// ErrInvalidTransition 表示评分取值不在 {liked, disliked, neutral} 内或 id 非法
	ErrInvalidTransition = NewDomainError(ModuleProfile, ErrorCodeInvalidTransition, "profile: invalid rating transition")
)

// 通用错误检查函数

// IsProfileNotFound 检查错误是否为 PROFILE_NOT_FOUND
func IsProfileNotFound(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeProfileNotFound
	}
	return false
}

// IsIndexUnavailable 检查错误是否为 INDEX_UNAVAILABLE
func IsIndexUnavailable(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeIndexUnavailable
	}
	return false
}

// IsEmbeddingUnavailable 检查错误是否为 EMBEDDING_UNAVAILABLE
func IsEmbeddingUnavailable(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeEmbeddingUnavailable
	}
	return false
}

// IsInvalidTransition 检查错误是否为 INVALID_TRANSITION
func IsInvalidTransition(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeInvalidTransition
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}
