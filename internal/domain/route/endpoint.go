// Package route holds the declarative endpoint table and resolves request
// paths against it.
package route

import (
	"time"

	"github.com/indevian-dev/stuwin-api/internal/domain/auth"
)

// WorkspaceParam is the path parameter that scopes a request to a workspace.
const WorkspaceParam = "workspaceId"

// WebhookScheme selects the signature verification applied to an endpoint.
type WebhookScheme string

const (
	WebhookNone    WebhookScheme = ""
	WebhookQueue   WebhookScheme = "queue"
	WebhookPayment WebhookScheme = "payment"
)

// RateLimit is a fixed-window budget.
type RateLimit struct {
	Window      time.Duration
	MaxRequests int
}

// EndpointConfig declares one logical endpoint.
type EndpointConfig struct {
	// Name binds the endpoint to its handler, e.g. "bookmarks.create".
	Name    string
	Pattern string
	Methods []string

	auth.Requirements

	// Public endpoints skip session resolution entirely.
	Public bool

	RateLimit *RateLimit
	Webhook   WebhookScheme
	APIKey    bool

	Extensions map[string]string
}

// Key identifies the endpoint in rate-limit counters and metrics.
func (e *EndpointConfig) Key() string {
	return e.Name
}

// AllowsMethod reports whether m is declared. HEAD is implied by GET.
func (e *EndpointConfig) AllowsMethod(m string) bool {
	for _, declared := range e.Methods {
		if declared == m || (m == "HEAD" && declared == "GET") {
			return true
		}
	}
	return false
}

// RouteValidation is the result of resolving a request.
type RouteValidation struct {
	Valid    bool
	Endpoint *EndpointConfig
	// NormalizedPath is the pattern that matched, not the request path.
	NormalizedPath string
	Params         map[string]string

	MethodNotAllowed bool
	Allowed          []string
}

// Param returns a path parameter or "".
func (v RouteValidation) Param(name string) string {
	return v.Params[name]
}
