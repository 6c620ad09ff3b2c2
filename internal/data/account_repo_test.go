package data

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/indevian-dev/stuwin-api/internal/errors"
	"github.com/indevian-dev/stuwin-api/internal/ports"
	"github.com/indevian-dev/stuwin-api/internal/testutil"
)

func TestAccountRepo_Create_Get(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewAccountRepo(db)

		rec, err := repo.Create(ctx, ports.CreateAccountInput{
			Name:         "Leyla Aliyeva",
			Email:        " Leyla@Example.com ",
			Phone:        "+994501112233",
			PasswordHash: "$2a$04$hash",
		})
		require.NoError(t, err)
		require.NotEmpty(t, rec.Account.ID)
		assert.Equal(t, rec.User.ID, rec.Account.UserID)
		assert.Equal(t, "leyla@example.com", rec.Account.Email)
		assert.False(t, rec.Account.EmailVerified)
		assert.False(t, rec.Account.Suspended)

		byID, err := repo.GetByID(ctx, rec.Account.ID)
		require.NoError(t, err)
		assert.Equal(t, "Leyla Aliyeva", byID.User.Name)
		assert.Equal(t, "$2a$04$hash", byID.Account.PasswordHash)

		byEmail, err := repo.GetByEmail(ctx, "LEYLA@example.com")
		require.NoError(t, err)
		assert.Equal(t, rec.Account.ID, byEmail.Account.ID)
	})
}

func TestAccountRepo_DuplicateEmailConflict(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewAccountRepo(db)

		_, err := repo.Create(ctx, ports.CreateAccountInput{Name: "A", Email: "dup@example.com"})
		require.NoError(t, err)

		_, err = repo.Create(ctx, ports.CreateAccountInput{Name: "B", Email: "dup@example.com"})
		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))
		assert.Equal(t, "email", apperrors.GetField(err))

		// The user row from the failed attempt is rolled back.
		var users int
		require.NoError(t, db.QueryRowContext(ctx, `SELECT count(*) FROM users WHERE name = 'B'`).Scan(&users))
		assert.Zero(t, users)
	})
}

func TestAccountRepo_NotFound(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewAccountRepo(db)

		_, err := repo.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
		assert.True(t, apperrors.IsNotFound(err))

		_, err = repo.GetByID(ctx, "not-a-uuid")
		assert.True(t, apperrors.IsNotFound(err))

		_, err = repo.GetByEmail(ctx, "nobody@example.com")
		assert.True(t, apperrors.IsNotFound(err))
	})
}
