package httpx

import (
	"net/http"
	"time"

	domainauth "github.com/indevian-dev/stuwin-api/internal/domain/auth"
	"github.com/indevian-dev/stuwin-api/internal/domain/route"
)

// Endpoint names bind handlers to table entries.
const (
	EndpointHealth          = "health"
	EndpointLogin           = "auth.login"
	EndpointRegister        = "auth.register"
	EndpointCurrent         = "auth.current"
	EndpointLogout          = "auth.logout"
	EndpointOTPSend         = "auth.otp.send"
	EndpointOTPVerify       = "auth.otp.verify"
	EndpointSSOLogin        = "auth.sso.login"
	EndpointSSOCallback     = "auth.sso.callback"
	EndpointWorkspacesList  = "workspaces.list"
	EndpointWorkspacesGet   = "workspaces.get"
	EndpointMembersAdd      = "workspaces.members.add"
	EndpointBookmarksList   = "bookmarks.list"
	EndpointBookmarksCreate = "bookmarks.create"
	EndpointBookmarksDelete = "bookmarks.delete"
	EndpointWebhookQueue    = "webhooks.queue"
	EndpointWebhookPayments = "webhooks.payments"
	EndpointInternalEnqueue = "internal.queue"
)

func perMinute(n int) *route.RateLimit {
	return &route.RateLimit{Window: time.Minute, MaxRequests: n}
}

// DefaultEndpoints is the endpoint table served by the API, in declaration order.
func DefaultEndpoints() []route.EndpointConfig {
	authed := domainauth.Requirements{AuthRequired: true}
	get := []string{http.MethodGet}
	post := []string{http.MethodPost}
	del := []string{http.MethodDelete}
	return []route.EndpointConfig{
		{Name: EndpointHealth, Pattern: "/healthz", Methods: get, Public: true},

		{Name: EndpointLogin, Pattern: "/auth/login", Methods: post, Public: true, RateLimit: perMinute(10)},
		{Name: EndpointRegister, Pattern: "/auth/register", Methods: post, Public: true, RateLimit: perMinute(5)},
		{Name: EndpointCurrent, Pattern: "/auth", Methods: get, Requirements: authed},
		{Name: EndpointLogout, Pattern: "/auth/logout", Methods: post, Requirements: authed},
		{Name: EndpointOTPSend, Pattern: "/auth/otp/send", Methods: post, Requirements: authed, RateLimit: perMinute(3)},
		{Name: EndpointOTPVerify, Pattern: "/auth/otp/verify", Methods: post, Requirements: authed, RateLimit: perMinute(10)},
		{Name: EndpointSSOLogin, Pattern: "/auth/sso/login", Methods: get, Public: true},
		{Name: EndpointSSOCallback, Pattern: "/auth/sso/callback", Methods: get, Public: true},

		{Name: EndpointWorkspacesList, Pattern: "/workspaces", Methods: get, Requirements: authed},
		{
			Name: EndpointWorkspacesGet, Pattern: "/workspaces/:workspaceId", Methods: get,
			Requirements: domainauth.Requirements{Permission: domainauth.PermWorkspaceRead},
		},
		{
			Name: EndpointMembersAdd, Pattern: "/workspaces/:workspaceId/members", Methods: post,
			Requirements: domainauth.Requirements{
				Permission:            domainauth.PermMembersManage,
				RequiresTwoFactor:     true,
				NeedEmailVerification: true,
			},
		},

		{
			Name: EndpointBookmarksList, Pattern: "/workspaces/:workspaceId/bookmarks", Methods: get,
			Requirements: domainauth.Requirements{Permission: domainauth.PermBookmarksRead},
		},
		{
			Name: EndpointBookmarksCreate, Pattern: "/workspaces/:workspaceId/bookmarks", Methods: post,
			Requirements: domainauth.Requirements{Permission: domainauth.PermBookmarksWrite},
			RateLimit:    perMinute(30),
		},
		{
			Name: EndpointBookmarksDelete, Pattern: "/workspaces/:workspaceId/bookmarks/:id", Methods: del,
			Requirements: domainauth.Requirements{Permission: domainauth.PermBookmarksWrite},
		},

		{Name: EndpointWebhookQueue, Pattern: "/webhooks/queue/:topic", Methods: post, Webhook: route.WebhookQueue},
		{Name: EndpointWebhookPayments, Pattern: "/webhooks/payments", Methods: post, Webhook: route.WebhookPayment},
		{Name: EndpointInternalEnqueue, Pattern: "/internal/queue/:topic", Methods: post, APIKey: true},
	}
}
