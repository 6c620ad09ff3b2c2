package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/indevian-dev/stuwin-api/internal/ports"
)

// incrementScript is a fixed-window INCR: the first hit in a window sets the
// expiry. A key that somehow lost its TTL gets a fresh window.
var incrementScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RateCounter implements ports.RateCounter with an atomic Lua script.
type RateCounter struct {
	client redis.UniversalClient
}

var _ ports.RateCounter = (*RateCounter)(nil)

// NewRateCounter creates a Redis-backed fixed-window counter.
func NewRateCounter(client redis.UniversalClient) *RateCounter {
	return &RateCounter{client: client}
}

func (c *RateCounter) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if key == "" {
		return 0, 0, errors.New("key cannot be empty")
	}
	if window <= 0 {
		return 0, 0, errors.New("window must be positive")
	}
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	res, err := incrementScript.Run(ctx, c.client, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, 0, fmt.Errorf("rate counter increment: %w", err)
	}
	if len(res) != 2 {
		return 0, 0, fmt.Errorf("rate counter increment: unexpected reply %v", res)
	}
	return res[0], time.Duration(res[1]) * time.Millisecond, nil
}
