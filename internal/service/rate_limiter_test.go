package service

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/indevian-dev/stuwin-api/internal/adapters/memory"
	"github.com/indevian-dev/stuwin-api/internal/domain/route"
)

func TestRateLimiter_FixedWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	rl := NewRateLimiter(RateLimiterOptions{Counter: memory.NewRateCounter().WithClock(clock), Now: clock})
	limit := &route.RateLimit{Window: time.Minute, MaxRequests: 2}
	ctx := context.Background()

	r1, err := rl.Check(ctx, "ip:1.2.3.4", "auth.login", limit)
	require.NoError(t, err)
	assert.True(t, r1.Allowed)
	assert.Equal(t, 1, r1.Remaining)
	assert.Equal(t, 2, r1.Limit)

	r2, err := rl.Check(ctx, "ip:1.2.3.4", "auth.login", limit)
	require.NoError(t, err)
	assert.True(t, r2.Allowed)
	assert.Equal(t, 0, r2.Remaining)

	r3, err := rl.Check(ctx, "ip:1.2.3.4", "auth.login", limit)
	require.NoError(t, err)
	assert.False(t, r3.Allowed)
	assert.Equal(t, 0, r3.Remaining)
	assert.Equal(t, time.Minute, r3.RetryAfter)
	assert.Equal(t, now.Add(time.Minute), r3.ResetAt)

	// Other endpoints and clients have their own windows.
	other, err := rl.Check(ctx, "ip:1.2.3.4", "auth.register", limit)
	require.NoError(t, err)
	assert.True(t, other.Allowed)
	other, err = rl.Check(ctx, "ip:5.6.7.8", "auth.login", limit)
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	now = now.Add(time.Minute)
	r4, err := rl.Check(ctx, "ip:1.2.3.4", "auth.login", limit)
	require.NoError(t, err)
	assert.True(t, r4.Allowed)
}

func TestRateLimiter_NilLimitIsUnlimited(t *testing.T) {
	rl := NewRateLimiter(RateLimiterOptions{Counter: memory.NewRateCounter()})
	for range 100 {
		res, err := rl.Check(context.Background(), "k", "e", nil)
		require.NoError(t, err)
		require.True(t, res.Allowed)
	}
}

func TestRateLimiter_ConcurrentMaxOneAllowsExactlyOne(t *testing.T) {
	rl := NewRateLimiter(RateLimiterOptions{Counter: memory.NewRateCounter()})
	limit := &route.RateLimit{Window: time.Minute, MaxRequests: 1}

	const workers = 50
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	start := make(chan struct{})
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			res, err := rl.Check(context.Background(), "acct:a1", "bookmarks.create", limit)
			if err == nil && res.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()
	assert.Equal(t, 1, allowed)
}

func TestRateLimiter_CanceledContextDoesNotCount(t *testing.T) {
	counter := memory.NewRateCounter()
	rl := NewRateLimiter(RateLimiterOptions{Counter: counter})
	limit := &route.RateLimit{Window: time.Minute, MaxRequests: 1}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := rl.Check(ctx, "k", "e", limit)
	require.ErrorIs(t, err, context.Canceled)

	res, err := rl.Check(context.Background(), "k", "e", limit)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestClientKey(t *testing.T) {
	r := httptest.NewRequest("GET", "/auth", nil)
	r.RemoteAddr = "10.0.0.7:52100"
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	assert.Equal(t, "acct:a1", ClientKey(r, "a1", false))
	assert.Equal(t, "ip:10.0.0.7", ClientKey(r, "", false))
	assert.Equal(t, "ip:203.0.113.9", ClientKey(r, "", true))

	r.Header.Set("X-Forwarded-For", "garbage")
	assert.Equal(t, "ip:10.0.0.7", ClientKey(r, "", true))
}
