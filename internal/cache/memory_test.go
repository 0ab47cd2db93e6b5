package cache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestCache(ttl time.Duration) (*MemoryCache, *time.Time) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache(ttl, zap.NewNop())
	c.now = func() time.Time { return now }
	return c, &now
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	c, _ := newTestCache(5 * time.Minute)
	ctx := context.Background()

	if _, ok := c.Get(ctx, "missing"); ok {
		t.Fatalf("unexpected hit on empty cache")
	}

	c.Set(ctx, "k", []byte("v1"))
	got, ok := c.Get(ctx, "k")
	if !ok || string(got) != "v1" {
		t.Fatalf("Get(k) = %q, %v", got, ok)
	}

	c.Set(ctx, "k", []byte("v2"))
	got, ok = c.Get(ctx, "k")
	if !ok || string(got) != "v2" {
		t.Fatalf("Get(k) after overwrite = %q, %v", got, ok)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c, now := newTestCache(time.Hour)
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"))

	*now = now.Add(59 * time.Minute)
	if _, ok := c.Get(ctx, "k"); !ok {
		t.Fatalf("entry expired too early")
	}

	*now = now.Add(time.Minute)
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatalf("expired entry returned")
	}

	// An expired entry is removed on read and must not resurrect.
	*now = now.Add(-30 * time.Minute)
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatalf("removed entry resurrected")
	}
}

func TestMemoryCacheClear(t *testing.T) {
	c, _ := newTestCache(time.Hour)
	ctx := context.Background()

	c.Set(ctx, "a", []byte("1"))
	c.Set(ctx, "b", []byte("2"))
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	if _, ok := c.Get(ctx, "a"); ok {
		t.Fatalf("entry survived clear")
	}
	if _, ok := c.Get(ctx, "b"); ok {
		t.Fatalf("entry survived clear")
	}
}
