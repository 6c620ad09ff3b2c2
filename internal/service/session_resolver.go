package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	domainauth "github.com/indevian-dev/stuwin-api/internal/domain/auth"
	"github.com/indevian-dev/stuwin-api/internal/domain/model"
	apperrors "github.com/indevian-dev/stuwin-api/internal/errors"
	"github.com/indevian-dev/stuwin-api/internal/ports"
)

// SessionResolverOptions groups dependencies for SessionResolver.
type SessionResolverOptions struct {
	Sessions    ports.SessionStore
	Accounts    ports.AccountRepository
	Memberships ports.MembershipRepository
	Logger      *slog.Logger
	Now         func() time.Time
}

// SessionResolver turns a session token into an auth context scoped to one
// workspace.
type SessionResolver struct {
	sessions    ports.SessionStore
	accounts    ports.AccountRepository
	memberships ports.MembershipRepository
	logger      *slog.Logger
	now         func() time.Time
}

// NewSessionResolver constructs a SessionResolver.
func NewSessionResolver(opts SessionResolverOptions) *SessionResolver {
	if opts.Sessions == nil {
		panic("SessionStore is required")
	}
	if opts.Accounts == nil {
		panic("AccountRepository is required")
	}
	if opts.Memberships == nil {
		panic("MembershipRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &SessionResolver{
		sessions:    opts.Sessions,
		accounts:    opts.Accounts,
		memberships: opts.Memberships,
		logger:      logger.With("component", "session_resolver"),
		now:         now,
	}
}

// Resolve returns nil, nil for an anonymous caller: no token, an unknown or
// expired session, or a session whose account is gone. Permissions come only
// from the membership in workspaceID; an empty workspaceID yields none.
func (r *SessionResolver) Resolve(ctx context.Context, token, workspaceID string) (*domainauth.Context, error) {
	if token == "" {
		return nil, nil
	}

	sess, err := r.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, ports.ErrSessionNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess.Expired(r.now()) || sess.AccountID == "" {
		return nil, nil
	}

	var (
		rec        *ports.AccountRecord
		membership *model.Membership
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rec, err = r.accounts.GetByID(gctx, sess.AccountID)
		return err
	})
	if workspaceID != "" {
		g.Go(func() error {
			var err error
			membership, err = r.memberships.GetForAccount(gctx, sess.AccountID, workspaceID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("load account context: %w", err)
	}

	account := rec.Account
	user := rec.User
	ac := &domainauth.Context{
		User:              &user,
		Account:           &account,
		Session:           &sess,
		TwoFactorVerified: sess.TwoFactorVerified,
	}
	if membership != nil && membership.WorkspaceID == workspaceID {
		perms, unknown := domainauth.NewPermissionSet(membership.Role.Permissions)
		if len(unknown) > 0 {
			r.logger.WarnContext(ctx, "dropping unknown permissions",
				"role_id", membership.Role.ID, "unknown", unknown)
		}
		ac.ActiveWorkspaceID = workspaceID
		ac.Permissions = perms
	}
	return ac, nil
}
