package httpx

import (
	"log/slog"
	"net/http"
	"time"

	domainauth "github.com/indevian-dev/stuwin-api/internal/domain/auth"
	"github.com/indevian-dev/stuwin-api/internal/domain/route"
	"github.com/indevian-dev/stuwin-api/internal/ports"
)

// RequestContext is everything a handler may use about the current request.
// The gateway builds it after routing, authentication, authorization and
// rate limiting have all passed.
type RequestContext struct {
	// Auth is nil for anonymous callers and for system callers.
	Auth *domainauth.Context
	// Service is set for webhook and internal API-key callers.
	Service *domainauth.ServiceAccount

	Endpoint      *route.EndpointConfig
	Params        map[string]string
	Modules       ports.Modules
	Logger        *slog.Logger
	CorrelationID string
	// RawBody holds the exact request bytes for webhook and API-key endpoints.
	RawBody []byte

	w       http.ResponseWriter
	cookies cookieConfig
}

// Param returns a route parameter or "".
func (rc *RequestContext) Param(name string) string {
	return rc.Params[name]
}

// WorkspaceID returns the :workspaceId route parameter.
func (rc *RequestContext) WorkspaceID() string {
	return rc.Params[route.WorkspaceParam]
}

// SetSessionCookie issues the session cookie for s.
func (rc *RequestContext) SetSessionCookie(r *http.Request, s domainauth.Session) {
	rc.cookies.set(rc.w, r, rc.cookies.sessionName, s.ID, time.Until(s.ExpiresAt))
}

// ClearSessionCookie expires the session cookie.
func (rc *RequestContext) ClearSessionCookie(r *http.Request) {
	rc.cookies.clear(rc.w, r, rc.cookies.sessionName)
}

// SetCookie issues a short-lived auxiliary cookie such as SSO state.
func (rc *RequestContext) SetCookie(r *http.Request, name, value string, ttl time.Duration) {
	rc.cookies.set(rc.w, r, name, value, ttl)
}

// ClearCookie expires an auxiliary cookie.
func (rc *RequestContext) ClearCookie(r *http.Request, name string) {
	rc.cookies.clear(rc.w, r, name)
}
