package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
embedding:
  endpoint: http://localhost:8080
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Store.Backend != "memory" || cfg.Index.Backend != "memory" {
		t.Errorf("backends = %s/%s", cfg.Store.Backend, cfg.Index.Backend)
	}
	if cfg.Index.MoviesCollection != "movies" || cfg.Index.UsersCollection != "users" {
		t.Errorf("collections = %s/%s", cfg.Index.MoviesCollection, cfg.Index.UsersCollection)
	}
	if cfg.Embedding.Model != "all-MiniLM-L6-v2" || cfg.Embedding.Dim != 384 {
		t.Errorf("embedding = %s/%d", cfg.Embedding.Model, cfg.Embedding.Dim)
	}
	if cfg.Engine.DefaultTopK != 10 || cfg.Engine.MaxTopK != 50 {
		t.Errorf("topK = %d/%d", cfg.Engine.DefaultTopK, cfg.Engine.MaxTopK)
	}
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
store:
  backend: redis
  addr: localhost:6379
  db: 1
index:
  backend: chroma
  endpoint: http://localhost:8000
  movies_collection: films
  users_collection: profiles
embedding:
  endpoint: http://localhost:8080
  model: all-MiniLM-L6-v2
  dim: 384
catalog:
  backend: tmdb
  api_token: token123
  cache: true
engine:
  default_top_k: 20
  max_top_k: 100
  rule_expr: "candidate.year >= 1980"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Addr != "localhost:6379" || cfg.Store.DB != 1 {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Index.MoviesCollection != "films" {
		t.Errorf("movies collection = %s", cfg.Index.MoviesCollection)
	}
	if !cfg.Catalog.Cache || cfg.Catalog.APIToken != "token123" {
		t.Errorf("catalog = %+v", cfg.Catalog)
	}
	if cfg.Engine.RuleExpr == "" {
		t.Error("rule expr lost")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := &Config{}
		c.applyDefaults()
		c.Embedding.Endpoint = "http://localhost:8080"
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid defaults", mutate: func(c *Config) {}, wantErr: false},
		{name: "unknown store backend", mutate: func(c *Config) { c.Store.Backend = "dynamo" }, wantErr: true},
		{name: "redis without addr", mutate: func(c *Config) { c.Store.Backend = "redis" }, wantErr: true},
		{name: "chroma without endpoint", mutate: func(c *Config) { c.Index.Backend = "chroma" }, wantErr: true},
		{name: "missing embedding endpoint", mutate: func(c *Config) { c.Embedding.Endpoint = "" }, wantErr: true},
		{name: "tmdb without token", mutate: func(c *Config) { c.Catalog.Backend = "tmdb" }, wantErr: true},
		{name: "feast without host", mutate: func(c *Config) { c.Catalog.Backend = "feast" }, wantErr: true},
		{name: "max below default topk", mutate: func(c *Config) { c.Engine.MaxTopK = 5 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
