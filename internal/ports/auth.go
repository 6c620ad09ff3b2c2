package ports

// Package ports defines interfaces (hexagonal ports) between the gateway,
// the services behind it, and the adapters that back them.
// Implementations live in internal/adapters and internal/data; orchestration in internal/service.

import (
	"context"
	"errors"

	domainauth "github.com/indevian-dev/stuwin-api/internal/domain/auth"
	"github.com/indevian-dev/stuwin-api/internal/domain/model"
)

// ErrSessionNotFound is returned by SessionStore for missing or expired sessions.
var ErrSessionNotFound = errors.New("session not found")

// BeginInput carries inputs for initiating an SSO flow.
type BeginInput struct {
	RedirectURL string
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// AuthProvider initiates and completes an SSO flow against an IdP.
type AuthProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and returns the authenticated identity.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.ExternalIdentity, error)
}

// SessionStore persists sessions and their two-factor flag.
// Implementations must be safe for concurrent use.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	// Get returns ErrSessionNotFound for missing or expired sessions and
	// populates Session.TwoFactorVerified from the side-channel flag.
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
	// MarkTwoFactorVerified sets the flag only while the session exists; it
	// returns ErrSessionNotFound otherwise. The flag expires with the session.
	MarkTwoFactorVerified(ctx context.Context, id string) error
}

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare returns nil only when password matches hash.
	Compare(hash, password string) error
}

// OTPDeliverer sends a one-time code over an out-of-band channel.
type OTPDeliverer interface {
	Deliver(ctx context.Context, d model.OTPDelivery) error
}
