package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/indevian-dev/stuwin-api/internal/ports"
)

const sweepEvery = 1024

type window struct {
	count   int64
	resetAt time.Time
}

// RateCounter is a mutex-guarded fixed-window counter. Expired windows are
// swept lazily.
type RateCounter struct {
	mu      sync.Mutex
	windows map[string]*window
	calls   int
	nowF    func() time.Time
}

var _ ports.RateCounter = (*RateCounter)(nil)

// NewRateCounter creates an empty counter.
func NewRateCounter() *RateCounter {
	return &RateCounter{windows: make(map[string]*window), nowF: time.Now}
}

// WithClock overrides the clock for tests.
func (c *RateCounter) WithClock(now func() time.Time) *RateCounter {
	c.nowF = now
	return c
}

func (c *RateCounter) Increment(ctx context.Context, key string, win time.Duration) (int64, time.Duration, error) {
	if key == "" {
		return 0, 0, errors.New("key cannot be empty")
	}
	if win <= 0 {
		return 0, 0, errors.New("window must be positive")
	}
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowF()
	c.calls++
	if c.calls%sweepEvery == 0 {
		c.sweep(now)
	}

	w, ok := c.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(win)}
		c.windows[key] = w
	}
	w.count++
	return w.count, w.resetAt.Sub(now), nil
}

// Len reports how many windows are tracked.
func (c *RateCounter) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.windows)
}

func (c *RateCounter) sweep(now time.Time) {
	for k, w := range c.windows {
		if !now.Before(w.resetAt) {
			delete(c.windows, k)
		}
	}
}
