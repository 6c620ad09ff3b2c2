package service

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/indevian-dev/stuwin-api/internal/domain/route"
	"github.com/indevian-dev/stuwin-api/internal/ports"
)

// RateLimitResult is the outcome of one rate-limit check.
type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
	ResetAt    time.Time
}

// RateLimiterOptions groups dependencies for RateLimiter.
type RateLimiterOptions struct {
	Counter ports.RateCounter
	Now     func() time.Time
}

// RateLimiter enforces fixed-window limits per client and endpoint.
type RateLimiter struct {
	counter ports.RateCounter
	now     func() time.Time
}

// NewRateLimiter constructs a RateLimiter.
func NewRateLimiter(opts RateLimiterOptions) *RateLimiter {
	if opts.Counter == nil {
		panic("RateCounter is required")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{counter: opts.Counter, now: now}
}

// RateLimitKey is the counter key for one client on one endpoint.
func RateLimitKey(clientKey, endpointKey string) string {
	return "ratelimit:" + clientKey + ":" + endpointKey
}

// Check counts one request. A nil limit is unlimited and never touches the
// counter. Counter errors are returned and the caller decides; the gateway
// fails closed.
func (l *RateLimiter) Check(ctx context.Context, clientKey, endpointKey string, limit *route.RateLimit) (RateLimitResult, error) {
	if limit == nil {
		return RateLimitResult{Allowed: true}, nil
	}

	count, resetIn, err := l.counter.Increment(ctx, RateLimitKey(clientKey, endpointKey), limit.Window)
	if err != nil {
		return RateLimitResult{}, fmt.Errorf("increment rate counter: %w", err)
	}
	if resetIn <= 0 {
		resetIn = limit.Window
	}

	res := RateLimitResult{
		Limit:   limit.MaxRequests,
		ResetAt: l.now().Add(resetIn),
	}
	if count <= int64(limit.MaxRequests) {
		res.Allowed = true
		res.Remaining = limit.MaxRequests - int(count)
		return res, nil
	}
	res.RetryAfter = resetIn
	return res, nil
}

// ClientKey identifies the caller for rate limiting: the account when
// authenticated, otherwise the client address. X-Forwarded-For is read only
// when trustProxy is set, and then its left-most entry wins.
func ClientKey(r *http.Request, accountID string, trustProxy bool) string {
	if accountID != "" {
		return "acct:" + accountID
	}
	return "ip:" + ClientIP(r, trustProxy)
}

// ClientIP returns the caller address used for anonymous rate limiting.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
				return ip.String()
			}
		}
		if xr := strings.TrimSpace(r.Header.Get("X-Real-Ip")); xr != "" {
			if ip := net.ParseIP(xr); ip != nil {
				return ip.String()
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
