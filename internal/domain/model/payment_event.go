package model

import (
	"encoding/json"
	"time"
)

// PaymentEvent is one provider callback, stored once per provider event id.
type PaymentEvent struct {
	ID              string          `json:"id"`
	ProviderEventID string          `json:"provider_event_id"`
	EventType       string          `json:"event_type"`
	WorkspaceID     string          `json:"workspace_id,omitempty"`
	Status          string          `json:"status"`
	AmountMinor     int64           `json:"amount_minor"`
	Payload         json.RawMessage `json:"payload"`
	ReceivedAt      time.Time       `json:"received_at"`
}

// RecordPaymentResult reports whether the event was new.
type RecordPaymentResult struct {
	Event     PaymentEvent `json:"event"`
	Duplicate bool         `json:"duplicate"`
}
