package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/indevian-dev/stuwin-api/internal/data/pgxutil"
	"github.com/indevian-dev/stuwin-api/internal/domain/model"
	apperrors "github.com/indevian-dev/stuwin-api/internal/errors"
	"github.com/indevian-dev/stuwin-api/internal/ports"
)

// MembershipRepo resolves and manages workspace memberships.
type MembershipRepo struct {
	DB    *sql.DB
	clock Clock
}

var _ ports.MembershipRepository = (*MembershipRepo)(nil)

// NewMembershipRepo returns a MembershipRepo stamping rows with the system clock.
func NewMembershipRepo(db *sql.DB) *MembershipRepo {
	return &MembershipRepo{DB: db, clock: systemClock{}}
}

const membershipSelect = `
	SELECT m.id, m.account_id, m.workspace_id, m.created_at,
	       r.id, r.name, r.workspace_type, r.permissions
	FROM memberships m
	JOIN roles r ON r.id = m.role_id`

func scanMembership(row pgx.CollectableRow) (model.Membership, error) {
	var m model.Membership
	err := row.Scan(
		&m.ID, &m.AccountID, &m.WorkspaceID, &m.CreatedAt,
		&m.Role.ID, &m.Role.Name, &m.Role.WorkspaceType, &m.Role.Permissions,
	)
	return m, err
}

// GetForAccount returns the account's membership in workspaceID, or nil
// when there is none. A malformed workspace id is treated as no membership.
func (r *MembershipRepo) GetForAccount(ctx context.Context, accountID, workspaceID string) (*model.Membership, error) {
	if !validUUID(accountID, workspaceID) {
		return nil, nil
	}
	var out model.Membership
	err := pgxutil.WithConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, membershipSelect+` WHERE m.account_id = $1 AND m.workspace_id = $2`,
			accountID, workspaceID)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, scanMembership)
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get membership: %w", apperrors.MapDBError(err))
	}
	return &out, nil
}

// ListForAccount lists the account's workspaces, oldest membership first.
func (r *MembershipRepo) ListForAccount(ctx context.Context, accountID string) ([]model.WorkspaceMembership, error) {
	var out []model.WorkspaceMembership
	err := pgxutil.WithConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT w.id, w.name, w.type, w.created_at,
			       r.id, r.name, r.workspace_type, r.permissions,
			       m.created_at
			FROM memberships m
			JOIN workspaces w ON w.id = m.workspace_id
			JOIN roles r ON r.id = m.role_id
			WHERE m.account_id = $1
			ORDER BY m.created_at ASC, w.id ASC`, accountID)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.WorkspaceMembership, error) {
			var wm model.WorkspaceMembership
			err := row.Scan(
				&wm.Workspace.ID, &wm.Workspace.Name, &wm.Workspace.Type, &wm.Workspace.CreatedAt,
				&wm.Role.ID, &wm.Role.Name, &wm.Role.WorkspaceType, &wm.Role.Permissions,
				&wm.JoinedAt,
			)
			return wm, err
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", apperrors.MapDBError(err))
	}
	if out == nil {
		out = []model.WorkspaceMembership{}
	}
	return out, nil
}

// Add inserts a membership. The role must be defined for the workspace's
// type; a second membership in the same workspace is a Conflict.
func (r *MembershipRepo) Add(ctx context.Context, req model.AddMemberRequest) (*model.Membership, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	if !validUUID(req.AccountID) {
		return nil, apperrors.ValidationField("accountId", "invalid account id")
	}
	if !validUUID(req.RoleID) {
		return nil, apperrors.ValidationField("roleId", "invalid role id")
	}
	if !validUUID(req.WorkspaceID) {
		return nil, apperrors.NotFound("workspace not found")
	}

	now := r.clock.Now().UTC()
	var out model.Membership
	err := pgxutil.WithTx(ctx, r.DB, func(tx pgx.Tx) error {
		var role model.Role
		err := tx.QueryRow(ctx, `
			SELECT r.id, r.name, r.workspace_type, r.permissions
			FROM roles r
			JOIN workspaces w ON w.type = r.workspace_type
			WHERE r.id = $1 AND w.id = $2`,
			req.RoleID, req.WorkspaceID,
		).Scan(&role.ID, &role.Name, &role.WorkspaceType, &role.Permissions)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.ValidationField("roleId", "role does not apply to this workspace")
			}
			return err
		}

		out = model.Membership{AccountID: req.AccountID, WorkspaceID: req.WorkspaceID, Role: role}
		return tx.QueryRow(ctx, `
			INSERT INTO memberships (account_id, workspace_id, role_id, created_at)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at`,
			req.AccountID, req.WorkspaceID, role.ID, now,
		).Scan(&out.ID, &out.CreatedAt)
	})
	if err != nil {
		if _, ok := apperrors.As(err); ok {
			return nil, err
		}
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}
