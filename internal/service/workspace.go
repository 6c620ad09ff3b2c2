package service

import (
	"context"
	"fmt"
	"log/slog"

	domainauth "github.com/indevian-dev/stuwin-api/internal/domain/auth"
	"github.com/indevian-dev/stuwin-api/internal/domain/model"
	apperrors "github.com/indevian-dev/stuwin-api/internal/errors"
	"github.com/indevian-dev/stuwin-api/internal/ports"
)

// requireWorkspace re-checks tenancy below the gate: the caller must be a
// member of workspaceID and hold perm there. A workspace the caller cannot
// see is reported as not found.
func requireWorkspace(ac *domainauth.Context, workspaceID string, perm domainauth.Permission) error {
	if ac.AccountID() == "" {
		return apperrors.Unauthorized("authentication required")
	}
	if workspaceID == "" || ac.ActiveWorkspaceID != workspaceID {
		return apperrors.NotFound("workspace not found")
	}
	if !ac.Permissions.Has(perm) {
		return apperrors.Forbidden("missing permission " + string(perm))
	}
	return nil
}

// WorkspaceServiceOptions groups dependencies for WorkspaceService.
type WorkspaceServiceOptions struct {
	Workspaces  ports.WorkspaceRepository
	Memberships ports.MembershipRepository
	Logger      *slog.Logger
}

// WorkspaceService exposes workspaces and their members.
type WorkspaceService struct {
	workspaces  ports.WorkspaceRepository
	memberships ports.MembershipRepository
	logger      *slog.Logger
}

// NewWorkspaceService constructs a WorkspaceService.
func NewWorkspaceService(opts WorkspaceServiceOptions) *WorkspaceService {
	if opts.Workspaces == nil {
		panic("WorkspaceRepository is required")
	}
	if opts.Memberships == nil {
		panic("MembershipRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkspaceService{
		workspaces:  opts.Workspaces,
		memberships: opts.Memberships,
		logger:      logger.With("component", "workspaces"),
	}
}

// List returns every workspace the caller belongs to.
func (s *WorkspaceService) List(ctx context.Context, ac *domainauth.Context) ([]model.WorkspaceMembership, error) {
	if ac.AccountID() == "" {
		return nil, apperrors.Unauthorized("authentication required")
	}
	out, err := s.memberships.ListForAccount(ctx, ac.AccountID())
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	return out, nil
}

// Get returns the caller's active workspace.
func (s *WorkspaceService) Get(ctx context.Context, ac *domainauth.Context, workspaceID string) (*model.Workspace, error) {
	if err := requireWorkspace(ac, workspaceID, domainauth.PermWorkspaceRead); err != nil {
		return nil, err
	}
	ws, err := s.workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("get workspace: %w", err)
	}
	return ws, nil
}

// AddMember grants an existing account a role in the caller's workspace.
func (s *WorkspaceService) AddMember(ctx context.Context, ac *domainauth.Context, req model.AddMemberRequest) (*model.Membership, error) {
	if err := requireWorkspace(ac, req.WorkspaceID, domainauth.PermMembersManage); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	m, err := s.memberships.Add(ctx, req)
	if err != nil {
		if _, ok := apperrors.As(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("add member: %w", err)
	}
	s.logger.InfoContext(ctx, "member added",
		"workspace_id", req.WorkspaceID, "account_id", req.AccountID, "role", m.Role.Name, "by", ac.AccountID())
	return m, nil
}
