// Package devauth provides a config-driven AuthProvider for local
// development that skips the identity provider round trip.
package devauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	domainauth "github.com/indevian-dev/stuwin-api/internal/domain/auth"
	"github.com/indevian-dev/stuwin-api/internal/ports"
)

const defaultCallbackPath = "/auth/sso/callback"

// Config controls the dev auth provider. Email is required.
type Config struct {
	Email string
	Name  string
	// CallbackPath is where Begin sends the browser; defaults to the SSO callback.
	CallbackPath    string
	SessionDuration time.Duration // default 8h when zero
}

// Provider implements ports.AuthProvider for local development. Begin
// redirects straight back to our own callback and Exchange returns the
// configured identity with a verified email.
type Provider struct {
	email        string
	name         string
	callbackPath string
	duration     time.Duration
	now          func() time.Time
}

var _ ports.AuthProvider = (*Provider)(nil)

// NewProvider constructs a dev auth provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	email := strings.ToLower(strings.TrimSpace(cfg.Email))
	if email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	dur := cfg.SessionDuration
	if dur <= 0 {
		dur = 8 * time.Hour
	}
	path := cfg.CallbackPath
	if path == "" {
		path = defaultCallbackPath
	}
	return &Provider{email: email, name: cfg.Name, callbackPath: path, duration: dur, now: time.Now}, nil
}

// Begin returns a local callback URL with fresh state and nonce.
func (p *Provider) Begin(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
	state, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}
	q := url.Values{"code": {"dev"}, "state": {state}}
	return p.callbackPath + "?" + q.Encode(), state, nonce, nil
}

// Exchange returns the dev identity. State and nonce are checked by the
// caller; they only need to be present here.
func (p *Provider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.ExternalIdentity, error) {
	if err := ctx.Err(); err != nil {
		return domainauth.ExternalIdentity{}, err
	}
	if in.Code == "" || in.State == "" || in.Nonce == "" {
		return domainauth.ExternalIdentity{}, errors.New("dev auth: code, state and nonce are required")
	}
	return domainauth.ExternalIdentity{
		Subject:       "dev:" + p.email,
		Email:         p.email,
		EmailVerified: true,
		Name:          p.name,
		ExpiresAt:     p.now().Add(p.duration),
	}, nil
}

func randomString(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	b := make([]byte, (n*3+3)/4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b)[:n], nil
}
