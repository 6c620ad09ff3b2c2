package ports

import (
	"context"

	domainauth "github.com/indevian-dev/stuwin-api/internal/domain/auth"
	"github.com/indevian-dev/stuwin-api/internal/domain/model"
)

// LoginResult is returned by every flow that opens a session.
type LoginResult struct {
	Session domainauth.Session
	Account domainauth.Account
	User    domainauth.User
}

// OTPChallenge describes an issued one-time code without revealing it.
type OTPChallenge struct {
	Channel   string `json:"channel"`
	ExpiresIn int    `json:"expiresInSeconds"`
}

// AuthModule is the account and session capability.
type AuthModule interface {
	Login(ctx context.Context, req model.LoginRequest) (*LoginResult, error)
	Register(ctx context.Context, req model.RegisterRequest) (*LoginResult, error)
	BeginSSO(ctx context.Context) (authURL, state, nonce string, err error)
	CompleteSSO(ctx context.Context, in ExchangeInput) (*LoginResult, error)

	// The remaining operations act on the caller's own session.
	Current(ctx context.Context) (*domainauth.Context, error)
	Logout(ctx context.Context) error
	SendOTP(ctx context.Context, channel string) (*OTPChallenge, error)
	VerifyOTP(ctx context.Context, code string) error
}

// WorkspaceModule exposes the caller's workspaces.
type WorkspaceModule interface {
	List(ctx context.Context) ([]model.WorkspaceMembership, error)
	Get(ctx context.Context, workspaceID string) (*model.Workspace, error)
	AddMember(ctx context.Context, req model.AddMemberRequest) (*model.Membership, error)
}

// BookmarkModule manages the caller's bookmarks in one workspace.
type BookmarkModule interface {
	Create(ctx context.Context, req model.CreateBookmarkRequest) (*model.Bookmark, error)
	List(ctx context.Context, workspaceID string, limit, offset int) ([]model.Bookmark, error)
	Delete(ctx context.Context, workspaceID, id string) error
}

// JobModule enqueues and dispatches background jobs.
type JobModule interface {
	Enqueue(ctx context.Context, topic string, payload any) (*model.Job, error)
	// Dispatch runs a delivered job. Only system principals may dispatch.
	Dispatch(ctx context.Context, job model.Job) error
}

// PaymentModule records payment provider callbacks.
type PaymentModule interface {
	RecordEvent(ctx context.Context, raw []byte) (*model.RecordPaymentResult, error)
}

// Modules is the per-request facade handed to handlers.
type Modules struct {
	Auth       AuthModule
	Workspaces WorkspaceModule
	Bookmarks  BookmarkModule
	Jobs       JobModule
	Payments   PaymentModule
}

// ModuleFactory builds the facade for one request's principal. A nil
// principal is an anonymous caller.
type ModuleFactory interface {
	For(p domainauth.Principal) Modules
}
