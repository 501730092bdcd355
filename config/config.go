package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config 是引擎部署配置（支持 YAML）。
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Index     IndexConfig     `yaml:"index"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Engine    EngineConfig    `yaml:"engine"`
}

// StoreConfig 画像/缓存存储配置。
type StoreConfig struct {
	// Backend 后端类型：memory / redis
	Backend string `yaml:"backend"`

	// Addr Redis 地址（backend = redis 时必填）
	Addr string `yaml:"addr"`

	// DB Redis 库编号
	DB int `yaml:"db"`
}

// IndexConfig 相似度索引配置。
type IndexConfig struct {
	// Backend 后端类型：memory / chroma
	Backend string `yaml:"backend"`

	// Endpoint Chroma 服务端点（backend = chroma 时必填）
	Endpoint string `yaml:"endpoint"`

	// MoviesCollection / UsersCollection 集合名
	MoviesCollection string `yaml:"movies_collection"`
	UsersCollection  string `yaml:"users_collection"`

	// Timeout 请求超时（秒）
	Timeout int `yaml:"timeout"`
}

// EmbeddingConfig Embedding 服务配置。
type EmbeddingConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	Dim      int    `yaml:"dim"`
	Timeout  int    `yaml:"timeout"`
}

// CatalogConfig 影片目录配置。
type CatalogConfig struct {
	// Backend 后端类型：tmdb / feast / none
	Backend string `yaml:"backend"`

	// APIToken TMDB Bearer Token（backend = tmdb 时必填）
	APIToken string `yaml:"api_token"`

	// Host / Port / Project Feast 连接参数（backend = feast 时必填）
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	Project string `yaml:"project"`

	// Cache 是否启用读穿缓存（复用 store 后端）
	Cache bool `yaml:"cache"`
}

// EngineConfig 引擎行为配置。
type EngineConfig struct {
	DefaultTopK int `yaml:"default_top_k"`
	MaxTopK     int `yaml:"max_top_k"`

	// EnrichTimeout 旁路富化超时（秒）
	EnrichTimeout int `yaml:"enrich_timeout"`

	// RuleExpr 运营规则表达式（CEL，可选）
	RuleExpr string `yaml:"rule_expr"`
}

// Load 从 YAML 文件加载配置并校验。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Store.Backend == "" {
		c.Store.Backend = "memory"
	}
	if c.Index.Backend == "" {
		c.Index.Backend = "memory"
	}
	if c.Index.MoviesCollection == "" {
		c.Index.MoviesCollection = "movies"
	}
	if c.Index.UsersCollection == "" {
		c.Index.UsersCollection = "users"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "all-MiniLM-L6-v2"
	}
	if c.Embedding.Dim == 0 {
		c.Embedding.Dim = 384
	}
	if c.Catalog.Backend == "" {
		c.Catalog.Backend = "none"
	}
	if c.Engine.DefaultTopK == 0 {
		c.Engine.DefaultTopK = 10
	}
	if c.Engine.MaxTopK == 0 {
		c.Engine.MaxTopK = 50
	}
	if c.Engine.EnrichTimeout == 0 {
		c.Engine.EnrichTimeout = 10
	}
}

// Validate 校验配置合法性。
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "memory":
	case "redis":
		if c.Store.Addr == "" {
			return fmt.Errorf("store: redis backend requires addr")
		}
	default:
		return fmt.Errorf("store: unknown backend %q", c.Store.Backend)
	}

	switch c.Index.Backend {
	case "memory":
	case "chroma":
		if c.Index.Endpoint == "" {
			return fmt.Errorf("index: chroma backend requires endpoint")
		}
	default:
		return fmt.Errorf("index: unknown backend %q", c.Index.Backend)
	}

	if c.Embedding.Endpoint == "" {
		return fmt.Errorf("embedding: endpoint is required")
	}
	if c.Embedding.Dim <= 0 {
		return fmt.Errorf("embedding: dim must be positive")
	}

	switch c.Catalog.Backend {
	case "none":
	case "tmdb":
		if c.Catalog.APIToken == "" {
			return fmt.Errorf("catalog: tmdb backend requires api_token")
		}
	case "feast":
		if c.Catalog.Host == "" {
			return fmt.Errorf("catalog: feast backend requires host")
		}
	default:
		return fmt.Errorf("catalog: unknown backend %q", c.Catalog.Backend)
	}

	if c.Engine.DefaultTopK <= 0 {
		return fmt.Errorf("engine: default_top_k must be positive")
	}
	if c.Engine.MaxTopK < c.Engine.DefaultTopK {
		return fmt.Errorf("engine: max_top_k must be >= default_top_k")
	}
	return nil
}
