package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/indevian-dev/stuwin-api/internal/domain/auth"
	"github.com/indevian-dev/stuwin-api/internal/ports"
)

func TestMockAuthProvider_Begin_Deterministic(t *testing.T) {
	m := NewMockAuthProvider()

	url1, state1, nonce1, err := m.Begin(context.Background(), ports.BeginInput{})
	require.NoError(t, err)
	assert.Equal(t, "state-1", state1)
	assert.Equal(t, "nonce-1", nonce1)
	assert.Contains(t, url1, "https://mock-idp/auth")

	_, state2, _, err := m.Begin(context.Background(), ports.BeginInput{})
	require.NoError(t, err)
	assert.Equal(t, "state-2", state2)
}

func TestMockAuthProvider_Exchange_RecordsInput(t *testing.T) {
	m := NewMockAuthProvider()
	in := ports.ExchangeInput{Code: "c", State: "state-1", Nonce: "nonce-1"}

	id, err := m.Exchange(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "mock.student@example.com", id.Email)
	assert.True(t, id.EmailVerified)
	assert.False(t, id.ExpiresAt.IsZero())
	assert.Equal(t, []ports.ExchangeInput{in}, m.Exchanges)
}

func TestMockAuthProvider_CustomFuncs(t *testing.T) {
	boom := errors.New("idp down")
	m := &MockAuthProvider{
		BeginFunc: func(context.Context, ports.BeginInput) (string, string, string, error) {
			return "", "", "", boom
		},
		ExchangeFunc: func(context.Context, ports.ExchangeInput) (domainauth.ExternalIdentity, error) {
			return domainauth.ExternalIdentity{}, boom
		},
	}

	_, _, _, err := m.Begin(context.Background(), ports.BeginInput{})
	assert.ErrorIs(t, err, boom)
	_, err = m.Exchange(context.Background(), ports.ExchangeInput{})
	assert.ErrorIs(t, err, boom)
}
