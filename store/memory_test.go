package store

import (
	"context"
	"testing"
	"time"

	"github.com/rushteam/flickrec/core"
)

func TestMemoryStore_GetSet(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !core.IsStoreNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := s.Set(ctx, "k1", []byte("v1")); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := s.Get(ctx, "k1")
	if err != nil || string(got) != "v1" {
		t.Fatalf("get = (%q, %v)", got, err)
	}

	if err := s.Delete(ctx, "k1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "k1"); !core.IsStoreNotFound(err) {
		t.Fatal("key should be gone after delete")
	}
}

func TestMemoryStore_TTL(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	s.Set(ctx, "short", []byte("v"), 1)

	// 未过期可读
	if _, err := s.Get(ctx, "short"); err != nil {
		t.Fatalf("get before expiry: %v", err)
	}

	// 人为把过期时间拨到过去
	s.mu.Lock()
	past := time.Now().Add(-time.Second)
	s.data["short"].ttl = &past
	s.mu.Unlock()

	if _, err := s.Get(ctx, "short"); !core.IsStoreNotFound(err) {
		t.Fatal("expired key must read as not found")
	}
}

func TestMemoryStore_Batch(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	kvs := map[string][]byte{
		"a": []byte("1"),
		"b": []byte("2"),
	}
	if err := s.BatchSet(ctx, kvs); err != nil {
		t.Fatalf("batch set: %v", err)
	}

	got, err := s.BatchGet(ctx, []string{"a", "b", "missing"})
	if err != nil {
		t.Fatalf("batch get: %v", err)
	}
	if len(got) != 2 || string(got["a"]) != "1" || string(got["b"]) != "2" {
		t.Errorf("batch get = %v", got)
	}
}

func TestMemoryStore_Hash(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	if _, err := s.HGet(ctx, "h", "f1"); !core.IsStoreNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}

	s.HSet(ctx, "h", "f1", []byte("v1"))
	s.HSet(ctx, "h", "f2", []byte("v2"))
	s.HSet(ctx, "other", "f1", []byte("x"))

	got, err := s.HGet(ctx, "h", "f1")
	if err != nil || string(got) != "v1" {
		t.Fatalf("hget = (%q, %v)", got, err)
	}

	all, err := s.HGetAll(ctx, "h")
	if err != nil {
		t.Fatalf("hgetall: %v", err)
	}
	if len(all) != 2 || string(all["f1"]) != "v1" || string(all["f2"]) != "v2" {
		t.Errorf("hgetall = %v", all)
	}
}
