package config

import (
	"errors"
	"strings"
	"time"
)

// QueueWebhookConfig holds the signing keys for queue delivery callbacks.
// Two keys are accepted so keys can be rotated without dropping deliveries.
type QueueWebhookConfig struct {
	CurrentSigningKey string `env:"CURRENT_SIGNING_KEY"`
	NextSigningKey    string `env:"NEXT_SIGNING_KEY"`
	Issuer            string `env:"ISSUER"              envDefault:"Upstash"`
}

// Keys returns the configured signing keys in preference order.
func (q QueueWebhookConfig) Keys() []string {
	var keys []string
	for _, k := range []string{q.CurrentSigningKey, q.NextSigningKey} {
		if k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// PaymentWebhookConfig holds HMAC secrets and JMESPath expressions used to
// pull fields out of provider callbacks.
type PaymentWebhookConfig struct {
	Secrets []string `env:"SECRETS" envSeparator:","`

	EventIDPath     string `env:"EVENT_ID_PATH"     envDefault:"id"`
	EventTypePath   string `env:"EVENT_TYPE_PATH"   envDefault:"type"`
	WorkspaceIDPath string `env:"WORKSPACE_ID_PATH" envDefault:"data.metadata.workspaceId"`
	StatusPath      string `env:"STATUS_PATH"       envDefault:"data.status"`
	AmountPath      string `env:"AMOUNT_PATH"       envDefault:"data.amount"`
}

// WebhookConfig groups webhook verification settings.
type WebhookConfig struct {
	Queue   QueueWebhookConfig   `envPrefix:"WEBHOOK_QUEUE_"`
	Payment PaymentWebhookConfig `envPrefix:"WEBHOOK_PAYMENT_"`

	// SkipVerification bypasses signature checks. Honoured only in dev and
	// logged loudly at startup and per request.
	SkipVerification bool `env:"WEBHOOK_SKIP_VERIFICATION" envDefault:"false"`

	VerifyTimeout time.Duration `env:"WEBHOOK_VERIFY_TIMEOUT" envDefault:"2s"`
}

// Sanitize normalises webhook settings.
func (w *WebhookConfig) Sanitize() {
	if w.VerifyTimeout <= 0 {
		w.VerifyTimeout = 2 * time.Second
	}
	secrets := w.Payment.Secrets[:0]
	for _, s := range w.Payment.Secrets {
		if s = strings.TrimSpace(s); s != "" {
			secrets = append(secrets, s)
		}
	}
	w.Payment.Secrets = secrets
}

// Validate requires signing material outside dev.
func (w *WebhookConfig) Validate() error {
	var errs []error
	if len(w.Queue.Keys()) == 0 {
		errs = append(errs, errors.New("WEBHOOK_QUEUE_CURRENT_SIGNING_KEY is required"))
	}
	if len(w.Payment.Secrets) == 0 {
		errs = append(errs, errors.New("WEBHOOK_PAYMENT_SECRETS is required"))
	}
	return errors.Join(errs...)
}
