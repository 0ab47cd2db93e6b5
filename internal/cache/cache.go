package cache

import "context"

// Cache is a byte-valued key/value store with a single time-to-live applied
// to every entry. An expired entry is indistinguishable from a missing one.
// Values are stored as raw bytes so the unfiltered upstream payloads are
// what gets cached; callers decode on the way out.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
	Clear(ctx context.Context) error
}
