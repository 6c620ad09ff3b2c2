package redis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateCounter_Increment(t *testing.T) {
	counter := NewRateCounter(setupTestRedis(t))
	ctx := context.Background()

	n, reset, err := counter.Increment(ctx, "ratelimit:a:b", time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Greater(t, reset, 50*time.Second)

	n, _, err = counter.Increment(ctx, "ratelimit:a:b", time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestRateCounter_WindowExpires(t *testing.T) {
	counter := NewRateCounter(setupTestRedis(t))
	ctx := context.Background()

	_, _, err := counter.Increment(ctx, "ratelimit:short", 50*time.Millisecond)
	require.NoError(t, err)
	time.Sleep(120 * time.Millisecond)

	n, _, err := counter.Increment(ctx, "ratelimit:short", 50*time.Millisecond)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestRateCounter_ConcurrentIncrementsAreAtomic(t *testing.T) {
	counter := NewRateCounter(setupTestRedis(t))
	ctx := context.Background()

	const workers = 50
	var firsts atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, _, err := counter.Increment(ctx, "ratelimit:burst", time.Minute)
			assert.NoError(t, err)
			if n == 1 {
				firsts.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, firsts.Load())
	n, _, err := counter.Increment(ctx, "ratelimit:burst", time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, workers+1, n)
}

func TestRateCounter_CanceledContext(t *testing.T) {
	client := setupTestRedis(t)
	counter := NewRateCounter(client)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := counter.Increment(ctx, "ratelimit:cancel", time.Minute)
	assert.ErrorIs(t, err, context.Canceled)

	exists, err := client.Exists(context.Background(), "ratelimit:cancel").Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}
