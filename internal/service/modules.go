package service

import (
	"context"

	domainauth "github.com/indevian-dev/stuwin-api/internal/domain/auth"
	"github.com/indevian-dev/stuwin-api/internal/domain/model"
	apperrors "github.com/indevian-dev/stuwin-api/internal/errors"
	"github.com/indevian-dev/stuwin-api/internal/ports"
)

// ModuleFactoryOptions groups the services the facade exposes.
type ModuleFactoryOptions struct {
	Auth       *AuthService
	Workspaces *WorkspaceService
	Bookmarks  *BookmarkService
	Jobs       *JobService
	Payments   *PaymentService
}

// ModuleFactory binds services to one request's principal.
type ModuleFactory struct {
	auth       *AuthService
	workspaces *WorkspaceService
	bookmarks  *BookmarkService
	jobs       *JobService
	payments   *PaymentService
}

var _ ports.ModuleFactory = (*ModuleFactory)(nil)

// NewModuleFactory constructs a ModuleFactory.
func NewModuleFactory(opts ModuleFactoryOptions) *ModuleFactory {
	if opts.Auth == nil || opts.Workspaces == nil || opts.Bookmarks == nil || opts.Jobs == nil || opts.Payments == nil {
		panic("all module services are required")
	}
	return &ModuleFactory{
		auth:       opts.Auth,
		workspaces: opts.Workspaces,
		bookmarks:  opts.Bookmarks,
		jobs:       opts.Jobs,
		payments:   opts.Payments,
	}
}

// For returns the facade for p. User modules see only the *Context; system
// modules see only the *ServiceAccount.
func (f *ModuleFactory) For(p domainauth.Principal) ports.Modules {
	var (
		ac *domainauth.Context
		sa *domainauth.ServiceAccount
	)
	switch v := p.(type) {
	case *domainauth.Context:
		ac = v
	case *domainauth.ServiceAccount:
		sa = v
	}
	return ports.Modules{
		Auth:       authModule{svc: f.auth, ac: ac},
		Workspaces: workspaceModule{svc: f.workspaces, ac: ac},
		Bookmarks:  bookmarkModule{svc: f.bookmarks, ac: ac},
		Jobs:       jobModule{svc: f.jobs, sa: sa},
		Payments:   paymentModule{svc: f.payments, sa: sa},
	}
}

type authModule struct {
	svc *AuthService
	ac  *domainauth.Context
}

func (m authModule) Login(ctx context.Context, req model.LoginRequest) (*ports.LoginResult, error) {
	return m.svc.Login(ctx, req)
}

func (m authModule) Register(ctx context.Context, req model.RegisterRequest) (*ports.LoginResult, error) {
	return m.svc.Register(ctx, req)
}

func (m authModule) BeginSSO(ctx context.Context) (string, string, string, error) {
	return m.svc.BeginSSO(ctx)
}

func (m authModule) CompleteSSO(ctx context.Context, in ports.ExchangeInput) (*ports.LoginResult, error) {
	return m.svc.CompleteSSO(ctx, in)
}

func (m authModule) Current(context.Context) (*domainauth.Context, error) {
	if m.ac.AccountID() == "" {
		return nil, apperrors.Unauthorized("authentication required")
	}
	return m.ac, nil
}

func (m authModule) Logout(ctx context.Context) error { return m.svc.Logout(ctx, m.ac) }

func (m authModule) SendOTP(ctx context.Context, channel string) (*ports.OTPChallenge, error) {
	return m.svc.SendOTP(ctx, m.ac, channel)
}

func (m authModule) VerifyOTP(ctx context.Context, code string) error {
	return m.svc.VerifyOTP(ctx, m.ac, code)
}

type workspaceModule struct {
	svc *WorkspaceService
	ac  *domainauth.Context
}

func (m workspaceModule) List(ctx context.Context) ([]model.WorkspaceMembership, error) {
	return m.svc.List(ctx, m.ac)
}

func (m workspaceModule) Get(ctx context.Context, workspaceID string) (*model.Workspace, error) {
	return m.svc.Get(ctx, m.ac, workspaceID)
}

func (m workspaceModule) AddMember(ctx context.Context, req model.AddMemberRequest) (*model.Membership, error) {
	return m.svc.AddMember(ctx, m.ac, req)
}

type bookmarkModule struct {
	svc *BookmarkService
	ac  *domainauth.Context
}

func (m bookmarkModule) Create(ctx context.Context, req model.CreateBookmarkRequest) (*model.Bookmark, error) {
	return m.svc.Create(ctx, m.ac, req)
}

func (m bookmarkModule) List(ctx context.Context, workspaceID string, limit, offset int) ([]model.Bookmark, error) {
	return m.svc.List(ctx, m.ac, workspaceID, limit, offset)
}

func (m bookmarkModule) Delete(ctx context.Context, workspaceID, id string) error {
	return m.svc.Delete(ctx, m.ac, workspaceID, id)
}

var errSystemOnly = apperrors.Forbidden("system callers only")

type jobModule struct {
	svc *JobService
	sa  *domainauth.ServiceAccount
}

func (m jobModule) Enqueue(ctx context.Context, topic string, payload any) (*model.Job, error) {
	if m.sa == nil {
		return nil, errSystemOnly
	}
	return m.svc.Enqueue(ctx, topic, payload)
}

func (m jobModule) Dispatch(ctx context.Context, job model.Job) error {
	if m.sa == nil {
		return errSystemOnly
	}
	return m.svc.Dispatch(ctx, job)
}

type paymentModule struct {
	svc *PaymentService
	sa  *domainauth.ServiceAccount
}

func (m paymentModule) RecordEvent(ctx context.Context, raw []byte) (*model.RecordPaymentResult, error) {
	if m.sa == nil || m.sa.Scheme != domainauth.SchemePaymentSignature {
		return nil, errSystemOnly
	}
	return m.svc.RecordEvent(ctx, raw)
}
