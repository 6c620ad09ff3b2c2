package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/indevian-dev/stuwin-api/internal/domain/model"
	"github.com/indevian-dev/stuwin-api/internal/testutil"
)

func TestPaymentEventRepo_InsertIsIdempotent(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewPaymentEventRepo(db)
		ws := testutil.SeedWorkspace(t, db, "Provider", "provider")

		ev := model.PaymentEvent{
			ProviderEventID: "evt_123",
			EventType:       "payment.succeeded",
			WorkspaceID:     ws,
			Status:          "paid",
			AmountMinor:     1999,
			Payload:         json.RawMessage(`{"id":"evt_123"}`),
		}
		inserted, err := repo.Insert(ctx, ev)
		require.NoError(t, err)
		assert.True(t, inserted)

		inserted, err = repo.Insert(ctx, ev)
		require.NoError(t, err)
		assert.False(t, inserted)

		var count int
		require.NoError(t, db.QueryRowContext(ctx,
			`SELECT count(*) FROM payment_events WHERE provider_event_id = 'evt_123'`).Scan(&count))
		assert.Equal(t, 1, count)
	})
}

func TestPaymentEventRepo_UnknownWorkspaceStoredAsNull(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewPaymentEventRepo(db)

		for _, wsID := range []string{"", "not-a-uuid", "00000000-0000-0000-0000-000000000000"} {
			inserted, err := repo.Insert(ctx, model.PaymentEvent{
				ProviderEventID: "evt_" + wsID,
				Payload:         json.RawMessage(`{}`),
				WorkspaceID:     wsID,
			})
			require.NoError(t, err, wsID)
			assert.True(t, inserted)
		}

		var nulls int
		require.NoError(t, db.QueryRowContext(ctx,
			`SELECT count(*) FROM payment_events WHERE workspace_id IS NULL`).Scan(&nulls))
		assert.Equal(t, 3, nulls)
	})
}
