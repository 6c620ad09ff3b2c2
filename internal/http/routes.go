package httpx

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/indevian-dev/stuwin-api/internal/domain/route"
	"github.com/indevian-dev/stuwin-api/internal/observability/statsd"
	"github.com/indevian-dev/stuwin-api/internal/ports"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Table    *route.Table
	Sessions SessionResolver
	Limiter  RateLimiter
	Services ServiceAuthenticator
	Modules  ports.ModuleFactory
	Metrics  statsd.Sink
	// Pingers are probed by the health endpoint; optional.
	Pingers map[string]Pinger
	Gateway GatewayConfig
	// PostLoginRedirect is where a completed SSO login lands; optional.
	PostLoginRedirect string
	Logger            *slog.Logger
}

// NewRouter builds the gateway, binds every endpoint of the table to its
// handler and fails when any endpoint is left unserved.
func NewRouter(services RouterServices) (http.Handler, error) {
	gw := NewGateway(GatewayOptions{
		Table:    services.Table,
		Sessions: services.Sessions,
		Limiter:  services.Limiter,
		Services: services.Services,
		Modules:  services.Modules,
		Metrics:  services.Metrics,
		Logger:   services.Logger,
		Config:   services.Gateway,
	})

	registerAuthRoutes(gw, AuthHandlers{PostLoginRedirect: services.PostLoginRedirect})
	registerWorkspaceRoutes(gw)
	registerSystemRoutes(gw, services.Pingers)

	if err := gw.Validate(); err != nil {
		return nil, fmt.Errorf("gateway: %w", err)
	}
	return SecurityHeaders(gw), nil
}

func registerAuthRoutes(gw *Gateway, h AuthHandlers) {
	gw.Handle(EndpointLogin, h.Login)
	gw.Handle(EndpointRegister, h.Register)
	gw.Handle(EndpointCurrent, h.Current)
	gw.Handle(EndpointLogout, h.Logout)
	gw.Handle(EndpointOTPSend, h.SendOTP)
	gw.Handle(EndpointOTPVerify, h.VerifyOTP)
	gw.Handle(EndpointSSOLogin, h.SSOLogin)
	gw.Handle(EndpointSSOCallback, h.SSOCallback)
}

func registerWorkspaceRoutes(gw *Gateway) {
	gw.Handle(EndpointWorkspacesList, listWorkspaces)
	gw.Handle(EndpointWorkspacesGet, getWorkspace)
	gw.Handle(EndpointMembersAdd, addMember)
	gw.Handle(EndpointBookmarksList, listBookmarks)
	gw.Handle(EndpointBookmarksCreate, createBookmark)
	gw.Handle(EndpointBookmarksDelete, deleteBookmark)
}

func registerSystemRoutes(gw *Gateway, pingers map[string]Pinger) {
	gw.Handle(EndpointHealth, healthHandler(pingers))
	gw.Handle(EndpointWebhookQueue, queueDelivery)
	gw.Handle(EndpointWebhookPayments, paymentCallback)
	gw.Handle(EndpointInternalEnqueue, internalEnqueue)
}
