package httpx

import (
	"context"
	"net/http"
	"time"
)

// Pinger is a dependency the readiness check probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type healthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

const healthPingTimeout = 2 * time.Second

// healthHandler reports liveness and, when pingers are configured, whether
// each backing store answers.
func healthHandler(pingers map[string]Pinger) HandlerFunc {
	return func(rc *RequestContext, r *http.Request) (Result, error) {
		if len(pingers) == 0 {
			return OK(healthStatus{Status: "ok"}), nil
		}
		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		defer cancel()

		out := healthStatus{Status: "ok", Checks: make(map[string]string, len(pingers))}
		for name, p := range pingers {
			if err := p.Ping(ctx); err != nil {
				rc.Logger.WarnContext(ctx, "health check failed", "check", name, "error", err)
				out.Status = "degraded"
				out.Checks[name] = "down"
				continue
			}
			out.Checks[name] = "up"
		}
		if out.Status != "ok" {
			return Result{Status: http.StatusServiceUnavailable, Data: out}, nil
		}
		return OK(out), nil
	}
}
