package cache

import (
	"context"
	"testing"
	"time"

	"superyield/internal/config"
)

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1700000000, 0)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }

	if err := s.Set(ctx, "pools", []byte("v1"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok, err := s.Get(ctx, "pools")
	if err != nil || !ok || string(got) != "v1" {
		t.Fatalf("get=%q ok=%v err=%v", got, ok, err)
	}

	got[0] = 'x'
	again, _, _ := s.Get(ctx, "pools")
	if string(again) != "v1" {
		t.Fatalf("stored value mutated through returned slice: %q", again)
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := s.Get(ctx, "pools"); ok {
		t.Fatalf("expected expiry")
	}
}

func TestMemoryStoreNoTTLAndDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = s.Set(ctx, "k", []byte("v"), 0)
	if _, ok, _ := s.Get(ctx, "k"); !ok {
		t.Fatalf("expected hit")
	}
	_ = s.Delete(ctx, "k")
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestNewBackends(t *testing.T) {
	s, err := New(context.Background(), config.CacheConfig{Backend: "memory"})
	if err != nil {
		t.Fatalf("new memory: %v", err)
	}
	if _, ok := s.(*MemoryStore); !ok {
		t.Fatalf("store=%T want *MemoryStore", s)
	}
	if _, err := New(context.Background(), config.CacheConfig{Backend: "memcached"}); err == nil {
		t.Fatalf("expected unknown backend error")
	}
}
