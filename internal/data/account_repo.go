package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/indevian-dev/stuwin-api/internal/data/pgxutil"
	domainauth "github.com/indevian-dev/stuwin-api/internal/domain/auth"
	apperrors "github.com/indevian-dev/stuwin-api/internal/errors"
	"github.com/indevian-dev/stuwin-api/internal/ports"
)

// AccountRepo provides database operations for users and their accounts.
type AccountRepo struct {
	DB    *sql.DB
	clock Clock
}

var _ ports.AccountRepository = (*AccountRepo)(nil)

// NewAccountRepo returns an AccountRepo stamping rows with the system clock.
func NewAccountRepo(db *sql.DB) *AccountRepo {
	return &AccountRepo{DB: db, clock: systemClock{}}
}

// NewAccountRepoWithClock returns an AccountRepo using clock.
func NewAccountRepoWithClock(db *sql.DB, clock Clock) *AccountRepo {
	return &AccountRepo{DB: db, clock: clock}
}

const accountSelect = `
	SELECT a.id, a.user_id, a.email, COALESCE(a.phone, ''), a.email_verified, a.phone_verified,
	       a.suspended, COALESCE(a.password_hash, ''), a.created_at,
	       u.name, u.created_at
	FROM accounts a
	JOIN users u ON u.id = a.user_id`

func scanAccountRecord(row pgx.CollectableRow) (ports.AccountRecord, error) {
	var rec ports.AccountRecord
	err := row.Scan(
		&rec.Account.ID,
		&rec.Account.UserID,
		&rec.Account.Email,
		&rec.Account.Phone,
		&rec.Account.EmailVerified,
		&rec.Account.PhoneVerified,
		&rec.Account.Suspended,
		&rec.Account.PasswordHash,
		&rec.Account.CreatedAt,
		&rec.User.Name,
		&rec.User.CreatedAt,
	)
	rec.User.ID = rec.Account.UserID
	return rec, err
}

// GetByID retrieves an account and its user by account ID.
func (r *AccountRepo) GetByID(ctx context.Context, id string) (*ports.AccountRecord, error) {
	if !validUUID(id) {
		return nil, apperrors.NotFound("account not found")
	}
	return r.getOne(ctx, accountSelect+` WHERE a.id = $1`, id)
}

// GetByEmail retrieves an account by its normalized email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*ports.AccountRecord, error) {
	return r.getOne(ctx, accountSelect+` WHERE a.email = $1`, strings.ToLower(strings.TrimSpace(email)))
}

func (r *AccountRepo) getOne(ctx context.Context, query, arg string) (*ports.AccountRecord, error) {
	if arg == "" {
		return nil, apperrors.NotFound("account not found")
	}
	var out ports.AccountRecord
	err := pgxutil.WithConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, arg)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, scanAccountRecord)
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return nil, apperrors.NotFound("account not found")
		}
		return nil, fmt.Errorf("get account: %w", apperrors.MapDBError(err))
	}
	return &out, nil
}

// Create inserts a user and its account in one transaction.
func (r *AccountRepo) Create(ctx context.Context, in ports.CreateAccountInput) (*ports.AccountRecord, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" || email == "" {
		return nil, apperrors.Validation("name and email are required")
	}

	now := r.clock.Now().UTC()
	var out ports.AccountRecord
	err := pgxutil.WithTx(ctx, r.DB, func(tx pgx.Tx) error {
		var user domainauth.User
		if err := tx.QueryRow(ctx,
			`INSERT INTO users (name, created_at) VALUES ($1, $2) RETURNING id, name, created_at`,
			name, now,
		).Scan(&user.ID, &user.Name, &user.CreatedAt); err != nil {
			return fmt.Errorf("insert user: %w", err)
		}

		acct := domainauth.Account{UserID: user.ID}
		if err := tx.QueryRow(ctx, `
			INSERT INTO accounts (user_id, email, phone, email_verified, password_hash, created_at)
			VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), $6)
			RETURNING id, email, COALESCE(phone, ''), email_verified, phone_verified, suspended,
			          COALESCE(password_hash, ''), created_at`,
			user.ID, email, strings.TrimSpace(in.Phone), in.EmailVerified, in.PasswordHash, now,
		).Scan(
			&acct.ID, &acct.Email, &acct.Phone, &acct.EmailVerified, &acct.PhoneVerified,
			&acct.Suspended, &acct.PasswordHash, &acct.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert account: %w", err)
		}

		out = ports.AccountRecord{Account: acct, User: user}
		return nil
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}
