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

// WorkspaceRepo provides read access to workspaces.
type WorkspaceRepo struct {
	DB *sql.DB
}

var _ ports.WorkspaceRepository = (*WorkspaceRepo)(nil)

// NewWorkspaceRepo creates a new WorkspaceRepo.
func NewWorkspaceRepo(db *sql.DB) *WorkspaceRepo {
	return &WorkspaceRepo{DB: db}
}

// GetByID retrieves a workspace by ID.
func (r *WorkspaceRepo) GetByID(ctx context.Context, id string) (*model.Workspace, error) {
	if !validUUID(id) {
		return nil, apperrors.NotFound("workspace not found")
	}
	var out model.Workspace
	err := pgxutil.WithConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx,
			`SELECT id, name, type, created_at FROM workspaces WHERE id = $1`, id,
		).Scan(&out.ID, &out.Name, &out.Type, &out.CreatedAt)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return nil, apperrors.NotFound("workspace not found")
		}
		return nil, fmt.Errorf("get workspace: %w", apperrors.MapDBError(err))
	}
	return &out, nil
}

// Create inserts a workspace. Used by seeding and tests; the HTTP surface
// has no workspace creation.
func (r *WorkspaceRepo) Create(ctx context.Context, name string, typ model.WorkspaceType) (*model.Workspace, error) {
	if !typ.Valid() {
		return nil, apperrors.ValidationField("type", "unknown workspace type")
	}
	var out model.Workspace
	err := pgxutil.WithConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx,
			`INSERT INTO workspaces (name, type) VALUES ($1, $2) RETURNING id, name, type, created_at`,
			name, typ,
		).Scan(&out.ID, &out.Name, &out.Type, &out.CreatedAt)
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// RoleByName looks up a seeded role for a workspace type.
func (r *WorkspaceRepo) RoleByName(ctx context.Context, typ model.WorkspaceType, name string) (*model.Role, error) {
	var out model.Role
	err := pgxutil.WithConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx,
			`SELECT id, name, workspace_type, permissions FROM roles WHERE workspace_type = $1 AND name = $2`,
			typ, name,
		).Scan(&out.ID, &out.Name, &out.WorkspaceType, &out.Permissions)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundf("role %s/%s not found", typ, name)
		}
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}
