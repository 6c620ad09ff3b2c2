package ports

import (
	"context"
	"time"
)

// Cache is a small key/value store with TTLs. Get returns nil, nil for a
// missing key.
type Cache interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete reports whether this call removed the key. Concurrent callers
	// racing on one key see true at most once.
	Delete(ctx context.Context, key string) (bool, error)
	// SetIfNotExists atomically sets a key only if it doesn't already exist.
	SetIfNotExists(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
}
