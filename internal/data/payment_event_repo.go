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

// PaymentEventRepo stores payment provider callbacks once per provider event id.
type PaymentEventRepo struct {
	DB    *sql.DB
	clock Clock
}

var _ ports.PaymentEventRepository = (*PaymentEventRepo)(nil)

// NewPaymentEventRepo returns a PaymentEventRepo stamping rows with the system clock.
func NewPaymentEventRepo(db *sql.DB) *PaymentEventRepo {
	return &PaymentEventRepo{DB: db, clock: systemClock{}}
}

// Insert stores ev unless its provider event id was already recorded. An
// unknown or malformed workspace id is stored as NULL.
func (r *PaymentEventRepo) Insert(ctx context.Context, ev model.PaymentEvent) (bool, error) {
	if ev.ProviderEventID == "" {
		return false, apperrors.ValidationField("id", "provider event id is required")
	}
	receivedAt := ev.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = r.clock.Now().UTC()
	}
	var workspaceID *string
	if ev.WorkspaceID != "" && validUUID(ev.WorkspaceID) {
		workspaceID = &ev.WorkspaceID
	}

	var inserted bool
	err := pgxutil.WithConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx, `
			INSERT INTO payment_events (
				provider_event_id, event_type, workspace_id, status, amount_minor, payload, received_at
			)
			SELECT $1, $2, w.id, $4, $5, $6, $7
			FROM (SELECT 1) AS one
			LEFT JOIN workspaces w ON w.id = $3::uuid
			ON CONFLICT (provider_event_id) DO NOTHING`,
			ev.ProviderEventID, ev.EventType, workspaceID, ev.Status, ev.AmountMinor, string(ev.Payload), receivedAt,
		)
		if err != nil {
			return err
		}
		inserted = tag.RowsAffected() == 1
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("insert payment event: %w", apperrors.MapDBError(err))
	}
	return inserted, nil
}
