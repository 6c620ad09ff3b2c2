package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/indevian-dev/stuwin-api/internal/ports"
)

// Cache implements ports.Cache on Redis strings.
type Cache struct {
	client redis.UniversalClient
	prefix string
}

var _ ports.Cache = (*Cache)(nil)

// NewCache creates a cache whose keys are namespaced by prefix.
func NewCache(client redis.UniversalClient, prefix string) *Cache {
	return &Cache{client: client, prefix: prefix}
}

// Set stores a value with the given TTL; a zero TTL never expires.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+key, value, ttl).Err()
}

// Get returns nil, nil when the key doesn't exist or has expired.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errors.New("key cannot be empty")
	}

	result, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return result, nil
}

// Delete removes a key. DEL is atomic, so only one concurrent caller sees true.
func (c *Cache) Delete(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, errors.New("key cannot be empty")
	}

	result, err := c.client.Del(ctx, c.prefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("redis del: %w", err)
	}
	return result > 0, nil
}

// SetIfNotExists atomically sets a key only if it doesn't already exist.
// SET with NX and TTL in one command avoids the SETNX+EXPIRE race.
func (c *Cache) SetIfNotExists(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if key == "" {
		return false, errors.New("key cannot be empty")
	}
	if ttl <= 0 {
		ttl = time.Second
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	status, err := c.client.SetArgs(ctx, c.prefix+key, value, redis.SetArgs{Mode: "NX", TTL: ttl}).Result()
	if err != nil {
		// NX not met comes back as a nil reply.
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis SET NX: %w", err)
	}
	return status == "OK", nil
}
