// Package auth contains hand-written test doubles for auth ports.
package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	domainauth "github.com/indevian-dev/stuwin-api/internal/domain/auth"
	"github.com/indevian-dev/stuwin-api/internal/ports"
)

var _ ports.AuthProvider = (*MockAuthProvider)(nil)

// MockAuthProvider simulates an IdP with deterministic state and nonce values.
type MockAuthProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (domainauth.ExternalIdentity, error)

	AuthURL     string
	StatePrefix string
	NoncePrefix string
	Identity    domainauth.ExternalIdentity

	mu        sync.Mutex
	callCount int
	// Exchanges records every input passed to Exchange.
	Exchanges []ports.ExchangeInput
}

// NewMockAuthProvider creates a MockAuthProvider whose identity has a
// verified email.
func NewMockAuthProvider() *MockAuthProvider {
	return &MockAuthProvider{
		AuthURL:     "https://mock-idp/auth",
		StatePrefix: "state",
		NoncePrefix: "nonce",
		Identity: domainauth.ExternalIdentity{
			Subject:       "mock-subject-1",
			Email:         "mock.student@example.com",
			EmailVerified: true,
			Name:          "Mock Student",
		},
	}
}

func (m *MockAuthProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}

	m.mu.Lock()
	m.callCount++
	n := m.callCount
	m.mu.Unlock()

	authURL := m.AuthURL
	if authURL == "" {
		authURL = "https://mock-idp/auth"
	}
	state := fmt.Sprintf("%s-%d", orDefault(m.StatePrefix, "state"), n)
	nonce := fmt.Sprintf("%s-%d", orDefault(m.NoncePrefix, "nonce"), n)
	return fmt.Sprintf("%s?state=%s&nonce=%s", authURL, state, nonce), state, nonce, nil
}

func (m *MockAuthProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.ExternalIdentity, error) {
	m.mu.Lock()
	m.Exchanges = append(m.Exchanges, in)
	m.mu.Unlock()

	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}
	id := m.Identity
	id.ExpiresAt = time.Now().Add(time.Hour)
	return id, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
