package data

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/indevian-dev/stuwin-api/internal/domain/model"
	apperrors "github.com/indevian-dev/stuwin-api/internal/errors"
	"github.com/indevian-dev/stuwin-api/internal/testutil"
)

func TestBookmarkRepo_CreateListDelete(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		clock := NewManualClock(time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC))
		repo := NewBookmarkRepoWithClock(db, clock)

		acct := testutil.SeedAccount(t, db, testutil.AccountFixture{})
		ws := testutil.SeedWorkspace(t, db, "Home", "student")

		first, err := repo.Create(ctx, model.CreateBookmarkRequest{AccountID: acct, WorkspaceID: ws, QuestionID: "q-1"})
		require.NoError(t, err)
		clock.Advance(time.Minute)
		second, err := repo.Create(ctx, model.CreateBookmarkRequest{
			AccountID: acct, WorkspaceID: ws, QuestionID: " q-2 ", Note: "review",
		})
		require.NoError(t, err)
		assert.Equal(t, "q-2", second.QuestionID)

		list, err := repo.List(ctx, acct, ws, 10, 0)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, second.ID, list[0].ID)
		assert.Equal(t, first.ID, list[1].ID)

		ok, err := repo.Delete(ctx, acct, ws, first.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.Delete(ctx, acct, ws, first.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestBookmarkRepo_DuplicateIsConflict(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewBookmarkRepo(db)
		acct := testutil.SeedAccount(t, db, testutil.AccountFixture{})
		ws := testutil.SeedWorkspace(t, db, "Home", "student")

		req := model.CreateBookmarkRequest{AccountID: acct, WorkspaceID: ws, QuestionID: "q-7"}
		_, err := repo.Create(ctx, req)
		require.NoError(t, err)

		_, err = repo.Create(ctx, req)
		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))
	})
}

func TestBookmarkRepo_TenantIsolation(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewBookmarkRepo(db)
		alice := testutil.SeedAccount(t, db, testutil.AccountFixture{})
		bob := testutil.SeedAccount(t, db, testutil.AccountFixture{})
		wsA := testutil.SeedWorkspace(t, db, "A", "student")
		wsB := testutil.SeedWorkspace(t, db, "B", "student")

		bm, err := repo.Create(ctx, model.CreateBookmarkRequest{AccountID: alice, WorkspaceID: wsA, QuestionID: "q-1"})
		require.NoError(t, err)

		list, err := repo.List(ctx, alice, wsB, 10, 0)
		require.NoError(t, err)
		assert.Empty(t, list)

		list, err = repo.List(ctx, bob, wsA, 10, 0)
		require.NoError(t, err)
		assert.Empty(t, list)

		ok, err := repo.Delete(ctx, bob, wsA, bm.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = repo.Delete(ctx, alice, wsB, bm.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
