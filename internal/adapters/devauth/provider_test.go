package devauth

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/indevian-dev/stuwin-api/internal/ports"
)

func TestProvider_BeginAndExchange(t *testing.T) {
	prov, err := NewProvider(Config{Email: " Dev@Example.com ", Name: "Dev Student"})
	require.NoError(t, err)

	authURL, state, nonce, err := prov.Begin(context.Background(), ports.BeginInput{})
	require.NoError(t, err)
	assert.Len(t, state, 24)
	assert.Len(t, nonce, 24)

	u, err := url.Parse(authURL)
	require.NoError(t, err)
	assert.Equal(t, "/auth/sso/callback", u.Path)
	assert.Equal(t, state, u.Query().Get("state"))
	assert.Equal(t, "dev", u.Query().Get("code"))

	id, err := prov.Exchange(context.Background(), ports.ExchangeInput{Code: "dev", State: state, Nonce: nonce})
	require.NoError(t, err)
	assert.Equal(t, "dev@example.com", id.Email)
	assert.True(t, id.EmailVerified)
	assert.Equal(t, "Dev Student", id.Name)
	assert.False(t, id.ExpiresAt.IsZero())
}

func TestProvider_ExchangeNeedsNonce(t *testing.T) {
	prov, err := NewProvider(Config{Email: "dev@example.com"})
	require.NoError(t, err)
	_, err = prov.Exchange(context.Background(), ports.ExchangeInput{Code: "dev", State: "s"})
	assert.Error(t, err)
}

func TestNewProvider_RequiresEmail(t *testing.T) {
	_, err := NewProvider(Config{})
	assert.Error(t, err)
}
