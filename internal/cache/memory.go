package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type memoryEntry struct {
	value      []byte
	insertedAt time.Time
}

// MemoryCache is the in-process Cache backend. Entries expire lazily: a Get
// that finds an entry older than the TTL removes it and reports a miss.
// Size is unbounded; the key space is one entry per remote path or user id.
// The mutex serializes the read-then-write Get and Set paths shared by
// concurrent requests.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// NewMemoryCache builds a cache whose entries expire after ttl.
func NewMemoryCache(ttl time.Duration, logger *zap.Logger) *MemoryCache {
	logger.Info("memory cache initialized", zap.Duration("ttl", ttl))
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
	}
}

// Get returns the cached value if present and not expired.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.insertedAt) >= c.ttl {
		delete(c.entries, key)
		c.logger.Debug("cache entry expired", zap.String("key", key))
		return nil, false
	}
	return entry.value, true
}

// Set stores the value, replacing any previous entry wholesale.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{value: value, insertedAt: c.now()}
}

// Clear drops every entry.
func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]memoryEntry)
	c.logger.Info("memory cache cleared")
	return nil
}
