package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/indevian-dev/stuwin-api/internal/data/pgxutil"
	"github.com/indevian-dev/stuwin-api/internal/domain/model"
	apperrors "github.com/indevian-dev/stuwin-api/internal/errors"
	"github.com/indevian-dev/stuwin-api/internal/ports"
)

const (
	defaultBookmarkLimit = 50
	maxBookmarkLimit     = 200
)

// BookmarkRepo stores question bookmarks. Every query is scoped by account
// and workspace.
type BookmarkRepo struct {
	DB    *sql.DB
	clock Clock
}

var _ ports.BookmarkRepository = (*BookmarkRepo)(nil)

// NewBookmarkRepo returns a BookmarkRepo stamping rows with the system clock.
func NewBookmarkRepo(db *sql.DB) *BookmarkRepo {
	return &BookmarkRepo{DB: db, clock: systemClock{}}
}

// NewBookmarkRepoWithClock returns a BookmarkRepo using clock.
func NewBookmarkRepoWithClock(db *sql.DB, clock Clock) *BookmarkRepo {
	return &BookmarkRepo{DB: db, clock: clock}
}

func scanBookmark(row pgx.CollectableRow) (model.Bookmark, error) {
	var b model.Bookmark
	err := row.Scan(&b.ID, &b.AccountID, &b.WorkspaceID, &b.QuestionID, &b.Note, &b.CreatedAt)
	return b, err
}

// Create inserts a bookmark. A duplicate (account, workspace, question) maps
// to a Conflict error through the unique constraint.
func (r *BookmarkRepo) Create(ctx context.Context, req model.CreateBookmarkRequest) (*model.Bookmark, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	if !validUUID(req.AccountID, req.WorkspaceID) {
		return nil, apperrors.NotFound("workspace not found")
	}

	var out model.Bookmark
	err := pgxutil.WithConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO bookmarks (account_id, workspace_id, question_id, note, created_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, account_id, workspace_id, question_id, note, created_at`,
			req.AccountID, req.WorkspaceID, req.QuestionID, req.Note, r.clock.Now().UTC(),
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, scanBookmark)
		return err
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// List returns the account's bookmarks in one workspace, newest first.
func (r *BookmarkRepo) List(ctx context.Context, accountID, workspaceID string, limit, offset int) ([]model.Bookmark, error) {
	if limit <= 0 {
		limit = defaultBookmarkLimit
	}
	if limit > maxBookmarkLimit {
		limit = maxBookmarkLimit
	}
	if offset < 0 {
		offset = 0
	}
	out := []model.Bookmark{}
	if !validUUID(accountID, workspaceID) {
		return out, nil
	}

	err := pgxutil.WithConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT id, account_id, workspace_id, question_id, note, created_at
			FROM bookmarks
			WHERE account_id = $1 AND workspace_id = $2
			ORDER BY created_at DESC, id DESC
			LIMIT $3 OFFSET $4`,
			accountID, workspaceID, limit, offset,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.AppendRows(out, rows, scanBookmark)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", apperrors.MapDBError(err))
	}
	return out, nil
}

// Delete removes a bookmark owned by the account in the workspace. It
// reports false when no such bookmark exists.
func (r *BookmarkRepo) Delete(ctx context.Context, accountID, workspaceID, id string) (bool, error) {
	if !validUUID(accountID, workspaceID, id) {
		return false, nil
	}
	var affected int64
	err := pgxutil.WithConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx,
			`DELETE FROM bookmarks WHERE id = $1 AND account_id = $2 AND workspace_id = $3`,
			id, accountID, workspaceID,
		)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete bookmark: %w", apperrors.MapDBError(err))
	}
	return affected > 0, nil
}
