package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/indevian-dev/stuwin-api/internal/ports"
)

type cacheEntry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// Cache is an in-memory ports.Cache.
type Cache struct {
	mu   sync.Mutex
	m    map[string]cacheEntry
	nowF func() time.Time
}

var _ ports.Cache = (*Cache)(nil)

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{m: make(map[string]cacheEntry), nowF: time.Now}
}

func (c *Cache) live(key string, now time.Time) (cacheEntry, bool) {
	e, ok := c.m[key]
	if !ok {
		return cacheEntry{}, false
	}
	if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
		delete(c.m, key)
		return cacheEntry{}, false
	}
	return e, true
}

func (c *Cache) entry(value []byte, ttl time.Duration) cacheEntry {
	e := cacheEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = c.nowF().Add(ttl)
	}
	return e
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = c.entry(value, ttl)
	return nil
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.live(key, c.nowF())
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), e.value...), nil
}

func (c *Cache) Delete(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.live(key, c.nowF())
	delete(c.m, key)
	return ok, nil
}

func (c *Cache) SetIfNotExists(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if key == "" {
		return false, errors.New("key cannot be empty")
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if ttl <= 0 {
		ttl = time.Second
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.live(key, c.nowF()); ok {
		return false, nil
	}
	c.m[key] = c.entry(value, ttl)
	return true, nil
}
