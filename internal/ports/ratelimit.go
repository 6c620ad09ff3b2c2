package ports

import (
	"context"
	"time"
)

// RateCounter is a fixed-window counter. Increment atomically adds one to
// key, starting a new window of length window when the key is absent, and
// returns the post-increment count and the time left in the window.
// Implementations must not increment when ctx is already done.
type RateCounter interface {
	Increment(ctx context.Context, key string, window time.Duration) (count int64, resetIn time.Duration, err error)
}
