package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/indevian-dev/stuwin-api/internal/domain/model"
	apperrors "github.com/indevian-dev/stuwin-api/internal/errors"
	"github.com/indevian-dev/stuwin-api/internal/ports"
)

// PaymentPaths are the JMESPath expressions that locate fields in a
// provider callback. Empty expressions are skipped.
type PaymentPaths struct {
	EventID     string
	EventType   string
	WorkspaceID string
	Status      string
	Amount      string
}

// PaymentServiceOptions groups dependencies for PaymentService.
type PaymentServiceOptions struct {
	Repo   ports.PaymentEventRepository
	Paths  PaymentPaths
	Logger *slog.Logger
	Now    func() time.Time
}

// PaymentService records payment provider callbacks exactly once per
// provider event id.
type PaymentService struct {
	repo   ports.PaymentEventRepository
	logger *slog.Logger
	now    func() time.Time

	eventID     jmespath.JMESPath
	eventType   jmespath.JMESPath
	workspaceID jmespath.JMESPath
	status      jmespath.JMESPath
	amount      jmespath.JMESPath
}

// NewPaymentService compiles the configured paths. The event id path is
// required.
func NewPaymentService(opts PaymentServiceOptions) (*PaymentService, error) {
	if opts.Repo == nil {
		panic("PaymentEventRepository is required")
	}
	if strings.TrimSpace(opts.Paths.EventID) == "" {
		return nil, fmt.Errorf("event id path is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	s := &PaymentService{repo: opts.Repo, logger: logger.With("component", "payments"), now: now}

	compile := []struct {
		name string
		expr string
		dst  *jmespath.JMESPath
	}{
		{"event id", opts.Paths.EventID, &s.eventID},
		{"event type", opts.Paths.EventType, &s.eventType},
		{"workspace id", opts.Paths.WorkspaceID, &s.workspaceID},
		{"status", opts.Paths.Status, &s.status},
		{"amount", opts.Paths.Amount, &s.amount},
	}
	for _, c := range compile {
		if strings.TrimSpace(c.expr) == "" {
			continue
		}
		q, err := jmespath.Compile(c.expr)
		if err != nil {
			return nil, fmt.Errorf("compile %s path %q: %w", c.name, c.expr, err)
		}
		*c.dst = q
	}
	return s, nil
}

// RecordEvent extracts the configured fields from raw and stores the event.
// A replayed event is reported as a duplicate, not an error.
func (s *PaymentService) RecordEvent(ctx context.Context, raw []byte) (*model.RecordPaymentResult, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, apperrors.Validation("payment callback is not valid JSON")
	}

	eventID, err := searchString(s.eventID, doc)
	if err != nil {
		return nil, apperrors.ValidationField("eventId", err.Error())
	}
	if eventID == "" {
		return nil, apperrors.ValidationField("eventId", "event id is missing")
	}
	ev := model.PaymentEvent{
		ID:              uuid.NewString(),
		ProviderEventID: eventID,
		Payload:         json.RawMessage(raw),
		ReceivedAt:      s.now().UTC(),
	}
	if ev.EventType, err = searchString(s.eventType, doc); err != nil {
		return nil, apperrors.ValidationField("type", err.Error())
	}
	if ev.WorkspaceID, err = searchString(s.workspaceID, doc); err != nil {
		return nil, apperrors.ValidationField("workspaceId", err.Error())
	}
	if ev.Status, err = searchString(s.status, doc); err != nil {
		return nil, apperrors.ValidationField("status", err.Error())
	}
	if ev.AmountMinor, err = searchAmount(s.amount, doc); err != nil {
		return nil, apperrors.ValidationField("amount", err.Error())
	}

	// The provider retries until it sees a 2xx, so the insert must survive
	// the callback connection closing.
	inserted, err := s.repo.Insert(context.WithoutCancel(ctx), ev)
	if err != nil {
		return nil, fmt.Errorf("insert payment event: %w", err)
	}
	if !inserted {
		s.logger.InfoContext(ctx, "duplicate payment event", "provider_event_id", eventID)
		return &model.RecordPaymentResult{Event: ev, Duplicate: true}, nil
	}
	s.logger.InfoContext(ctx, "payment event recorded",
		"provider_event_id", eventID, "type", ev.EventType, "workspace_id", ev.WorkspaceID, "status", ev.Status)
	return &model.RecordPaymentResult{Event: ev}, nil
}

func searchString(q jmespath.JMESPath, doc any) (string, error) {
	if q == nil {
		return "", nil
	}
	v, err := q.Search(doc)
	if err != nil {
		return "", err
	}
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(t), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("expected a string, got %T", v)
	}
}

// searchAmount reads an amount in minor units. Numeric strings are accepted;
// fractional values are not.
func searchAmount(q jmespath.JMESPath, doc any) (int64, error) {
	if q == nil {
		return 0, nil
	}
	v, err := q.Search(doc)
	if err != nil {
		return 0, err
	}
	var f float64
	switch t := v.(type) {
	case nil:
		return 0, nil
	case float64:
		f = t
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("amount %q is not an integer", t)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
	if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, fmt.Errorf("amount %v is not an integer in minor units", f)
	}
	return int64(f), nil
}
