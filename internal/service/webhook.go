package service

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"time"

	domainauth "github.com/indevian-dev/stuwin-api/internal/domain/auth"
	apperrors "github.com/indevian-dev/stuwin-api/internal/errors"
	"github.com/indevian-dev/stuwin-api/internal/ports"
)

// WebhookServiceConfig tunes WebhookService.
type WebhookServiceConfig struct {
	VerifyTimeout time.Duration
	// SkipVerification is honoured only when Dev is also set.
	SkipVerification bool
	Dev              bool
	InternalAPIKey   string
}

// WebhookServiceOptions groups dependencies for WebhookService.
type WebhookServiceOptions struct {
	Verifiers map[domainauth.ServiceScheme]ports.SignatureVerifier
	Logger    *slog.Logger
	Config    WebhookServiceConfig
}

// WebhookService authenticates system callers and yields their service
// principal.
type WebhookService struct {
	verifiers map[domainauth.ServiceScheme]ports.SignatureVerifier
	logger    *slog.Logger
	timeout   time.Duration
	bypass    bool
	apiKey    []byte
}

// NewWebhookService constructs a WebhookService.
func NewWebhookService(opts WebhookServiceOptions) *WebhookService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "webhooks")

	timeout := opts.Config.VerifyTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	bypass := false
	switch {
	case opts.Config.SkipVerification && opts.Config.Dev:
		bypass = true
		logger.Warn("webhook signature verification is DISABLED (dev mode)")
	case opts.Config.SkipVerification:
		logger.Error("WEBHOOK_SKIP_VERIFICATION ignored outside dev mode")
	}

	verifiers := make(map[domainauth.ServiceScheme]ports.SignatureVerifier, len(opts.Verifiers))
	for k, v := range opts.Verifiers {
		if v != nil {
			verifiers[k] = v
		}
	}

	var apiKey []byte
	if opts.Config.InternalAPIKey != "" {
		apiKey = []byte(opts.Config.InternalAPIKey)
	}
	return &WebhookService{
		verifiers: verifiers,
		logger:    logger,
		timeout:   timeout,
		bypass:    bypass,
		apiKey:    apiKey,
	}
}

// Bypassed reports whether signatures are being skipped.
func (s *WebhookService) Bypassed() bool { return s.bypass }

// VerifySignature checks req under scheme. Every failure is reported as the
// same SIGNATURE_INVALID error; the cause is only logged.
func (s *WebhookService) VerifySignature(ctx context.Context, scheme domainauth.ServiceScheme, req ports.SignedRequest) (*domainauth.ServiceAccount, error) {
	principal := &domainauth.ServiceAccount{Name: string(scheme), Scheme: scheme}
	if s.bypass {
		s.logger.WarnContext(ctx, "webhook signature check bypassed", "scheme", scheme, "url", req.URL)
		return principal, nil
	}

	v, ok := s.verifiers[scheme]
	if !ok {
		s.logger.ErrorContext(ctx, "no verifier for webhook scheme", "scheme", scheme)
		return nil, apperrors.SignatureInvalid()
	}

	vctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := v.Verify(vctx, req); err != nil {
		s.logger.WarnContext(ctx, "webhook signature rejected", "scheme", scheme, "error", err)
		return nil, apperrors.SignatureInvalid()
	}
	return principal, nil
}

// VerifyAPIKey authenticates an internal caller by its X-Api-Key value.
func (s *WebhookService) VerifyAPIKey(ctx context.Context, key string) (*domainauth.ServiceAccount, error) {
	if len(s.apiKey) == 0 || key == "" || subtle.ConstantTimeCompare([]byte(key), s.apiKey) != 1 {
		s.logger.WarnContext(ctx, "internal api key rejected")
		return nil, apperrors.Unauthorized("invalid api key")
	}
	return &domainauth.ServiceAccount{Name: "internal", Scheme: domainauth.SchemeAPIKey}, nil
}
