// Package testutil provides database, Redis and fixture helpers for tests.
package testutil

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Seeded role names, per workspace type, created by migrations.
const (
	RoleStudentOwner    = "owner"
	RoleStudentMember   = "member"
	RoleProviderAdmin   = "admin"
	RoleProviderTeacher = "teacher"
)

// AccountFixture describes an account inserted by SeedAccount.
type AccountFixture struct {
	Name          string
	Email         string
	PasswordHash  string
	EmailVerified bool
	Suspended     bool
}

// SeedAccount inserts a user and account and returns the account id. A
// blank email gets a unique one.
func SeedAccount(t TestingTB, db *sql.DB, f AccountFixture) string {
	t.Helper()
	if f.Name == "" {
		f.Name = "Test Student"
	}
	if f.Email == "" {
		f.Email = "student-" + uuid.NewString()[:8] + "@example.com"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var userID, accountID string
	if err := db.QueryRowContext(ctx, `INSERT INTO users (name) VALUES ($1) RETURNING id`, f.Name).Scan(&userID); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	err := db.QueryRowContext(ctx, `
		INSERT INTO accounts (user_id, email, password_hash, email_verified, suspended)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5) RETURNING id`,
		userID, strings.ToLower(f.Email), f.PasswordHash, f.EmailVerified, f.Suspended,
	).Scan(&accountID)
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return accountID
}

// SeedWorkspace inserts a workspace and returns its id.
func SeedWorkspace(t TestingTB, db *sql.DB, name, typ string) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var id string
	if err := db.QueryRowContext(ctx,
		`INSERT INTO workspaces (name, type) VALUES ($1, $2) RETURNING id`, name, typ,
	).Scan(&id); err != nil {
		t.Fatalf("seed workspace: %v", err)
	}
	return id
}

// RoleID returns the id of a seeded role.
func RoleID(t TestingTB, db *sql.DB, workspaceType, name string) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var id string
	if err := db.QueryRowContext(ctx,
		`SELECT id FROM roles WHERE workspace_type = $1 AND name = $2`, workspaceType, name,
	).Scan(&id); err != nil {
		t.Fatalf("role %s/%s: %v", workspaceType, name, err)
	}
	return id
}

// SeedMembership binds an account to a workspace with a seeded role.
func SeedMembership(t TestingTB, db *sql.DB, accountID, workspaceID, roleName string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := db.ExecContext(ctx, `
		INSERT INTO memberships (account_id, workspace_id, role_id)
		SELECT $1, w.id, r.id
		FROM workspaces w
		JOIN roles r ON r.workspace_type = w.type AND r.name = $3
		WHERE w.id = $2`,
		accountID, workspaceID, roleName,
	)
	if err != nil {
		t.Fatalf("seed membership: %v", err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		t.Fatalf("seed membership: role %q not defined for workspace %s", roleName, workspaceID)
	}
}
