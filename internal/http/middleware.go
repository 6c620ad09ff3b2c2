package httpx

import (
	"log/slog"
	"net/http"
	"time"
)

// respWriter records the status written by downstream handlers.
type respWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *respWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.status = status
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *respWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *respWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// requestLog is the single access log line the gateway writes per request.
type requestLog struct {
	method   string
	path     string
	endpoint string
	status   int
	duration time.Duration
}

func logRequest(logger *slog.Logger, r *http.Request, l requestLog) {
	level := slog.LevelInfo
	if l.status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logger.LogAttrs(r.Context(), level, "http",
		slog.String("method", l.method),
		slog.String("path", l.path),
		slog.String("endpoint", l.endpoint),
		slog.Int("status", l.status),
		slog.Duration("duration", l.duration),
	)
}

// SecurityHeaders sets conservative headers on every API response.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
