package model

import (
	"errors"
	"time"
)

// WorkspaceType classifies a tenant.
type WorkspaceType string

const (
	WorkspaceStudent  WorkspaceType = "student"
	WorkspaceProvider WorkspaceType = "provider"
	WorkspaceStaff    WorkspaceType = "staff"
	WorkspaceParent   WorkspaceType = "parent"
)

// Valid reports whether t is a known workspace type.
func (t WorkspaceType) Valid() bool {
	switch t {
	case WorkspaceStudent, WorkspaceProvider, WorkspaceStaff, WorkspaceParent:
		return true
	default:
		return false
	}
}

// Workspace is a tenant boundary scoping data and permissions.
type Workspace struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Type      WorkspaceType `json:"type"`
	CreatedAt time.Time     `json:"created_at"`
}

// Role is a named permission bundle defined for a workspace type.
type Role struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	WorkspaceType WorkspaceType `json:"workspace_type"`
	// Permissions is the stored wire form; see auth.NewPermissionSet.
	Permissions []string `json:"permissions"`
}

// Membership binds an account to one workspace with one role.
type Membership struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"account_id"`
	WorkspaceID string    `json:"workspace_id"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// WorkspaceMembership is a membership joined with its workspace, used when
// listing the caller's workspaces.
type WorkspaceMembership struct {
	Workspace Workspace `json:"workspace"`
	Role      Role      `json:"role"`
	JoinedAt  time.Time `json:"joined_at"`
}

// AddMemberRequest adds an existing account to a workspace.
type AddMemberRequest struct {
	WorkspaceID string `json:"-"`
	AccountID   string `json:"accountId"`
	RoleID      string `json:"roleId"`
}

// Validate performs basic validation on AddMemberRequest.
func (r *AddMemberRequest) Validate() error {
	if r.WorkspaceID == "" {
		return errors.New("workspace id is required")
	}
	if r.AccountID == "" {
		return errors.New("accountId is required")
	}
	if r.RoleID == "" {
		return errors.New("roleId is required")
	}
	return nil
}
