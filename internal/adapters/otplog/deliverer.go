// Package otplog delivers one-time codes to the log. It stands in for an SMS
// or email gateway in development and in tests.
package otplog

import (
	"context"
	"log/slog"

	"github.com/indevian-dev/stuwin-api/internal/domain/model"
	"github.com/indevian-dev/stuwin-api/internal/ports"
)

// Deliverer writes each delivery as one log record.
type Deliverer struct {
	logger *slog.Logger
	// revealCode includes the plaintext code in the record. Dev only.
	revealCode bool
}

var _ ports.OTPDeliverer = (*Deliverer)(nil)

// New creates a Deliverer. revealCode must be false outside development.
func New(logger *slog.Logger, revealCode bool) *Deliverer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Deliverer{logger: logger.With("component", "otp_delivery"), revealCode: revealCode}
}

func (d *Deliverer) Deliver(ctx context.Context, in model.OTPDelivery) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	attrs := []any{
		"account_id", in.AccountID,
		"channel", in.Channel,
		"address", maskAddress(in.Address),
	}
	if d.revealCode {
		attrs = append(attrs, "code", in.Code)
	}
	d.logger.InfoContext(ctx, "otp delivered", attrs...)
	return nil
}

// maskAddress keeps the first and last two characters.
func maskAddress(s string) string {
	r := []rune(s)
	if len(r) <= 4 {
		return "****"
	}
	out := make([]rune, len(r))
	for i := range r {
		if i < 2 || i >= len(r)-2 {
			out[i] = r[i]
		} else {
			out[i] = '*'
		}
	}
	return string(out)
}
