package oidc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/indevian-dev/stuwin-api/internal/ports"
)

type discoveryDocument struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
	JwksURI               string `json:"jwks_uri"`
}

// discoveryServer serves a discovery document whose issuer is the server URL.
func discoveryServer(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(discoveryDocument{
			Issuer:                srv.URL,
			AuthorizationEndpoint: "https://idp.example.com/auth",
			TokenEndpoint:         srv.URL + "/token",
			UserinfoEndpoint:      srv.URL + "/userinfo",
			JwksURI:               srv.URL + "/jwks",
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func createTestProvider(t *testing.T) *Provider {
	t.Helper()
	srv := discoveryServer(t)
	p, err := NewProvider(context.Background(), ProviderConfig{
		ClientID:     "stuwin-web",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8080/api/auth/sso/callback",
		Scope:        "openid email profile",
		DiscoveryURL: srv.URL + "/.well-known/openid-configuration",
	})
	require.NoError(t, err)
	return p
}

func TestNewProvider_Success(t *testing.T) {
	p := createTestProvider(t)
	assert.Equal(t, "https://idp.example.com/auth", p.config.Endpoint.AuthURL)
	assert.Equal(t, []string{"openid", "email", "profile"}, p.config.Scopes)
}

func TestNewProvider_DefaultScopes(t *testing.T) {
	srv := discoveryServer(t)
	p, err := NewProvider(context.Background(), ProviderConfig{
		ClientID: "c", ClientSecret: "s", RedirectURL: "http://localhost/cb", DiscoveryURL: srv.URL,
	})
	require.NoError(t, err)
	assert.Contains(t, p.config.Scopes, "openid")
}

func TestNewProvider_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		config ProviderConfig
		errMsg string
	}{
		{
			name:   "missing client ID",
			config: ProviderConfig{ClientSecret: "s", RedirectURL: "http://localhost/cb", DiscoveryURL: "http://example.com"},
			errMsg: "client ID is required",
		},
		{
			name:   "missing client secret",
			config: ProviderConfig{ClientID: "c", RedirectURL: "http://localhost/cb", DiscoveryURL: "http://example.com"},
			errMsg: "client secret is required",
		},
		{
			name:   "missing redirect URL",
			config: ProviderConfig{ClientID: "c", ClientSecret: "s", DiscoveryURL: "http://example.com"},
			errMsg: "redirect URL is required",
		},
		{
			name:   "missing discovery URL",
			config: ProviderConfig{ClientID: "c", ClientSecret: "s", RedirectURL: "http://localhost/cb"},
			errMsg: "discovery URL is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProvider(context.Background(), tt.config)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestNewProvider_RequiresOpenIDScope(t *testing.T) {
	srv := discoveryServer(t)
	_, err := NewProvider(context.Background(), ProviderConfig{
		ClientID: "c", ClientSecret: "s", RedirectURL: "http://localhost/cb", DiscoveryURL: srv.URL, Scope: "email",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openid")
}

func TestProvider_Begin(t *testing.T) {
	p := createTestProvider(t)

	authURL, state, nonce, err := p.Begin(context.Background(), ports.BeginInput{})
	require.NoError(t, err)
	assert.Len(t, state, 32)
	assert.Len(t, nonce, 32)
	assert.Contains(t, authURL, "https://idp.example.com/auth")
	assert.Contains(t, authURL, "client_id=stuwin-web")
	assert.Contains(t, authURL, "state="+state)
	assert.Contains(t, authURL, "nonce="+nonce)

	_, state2, _, err := p.Begin(context.Background(), ports.BeginInput{})
	require.NoError(t, err)
	assert.NotEqual(t, state, state2)
}

func TestProvider_Exchange_ValidationErrors(t *testing.T) {
	p := createTestProvider(t)

	tests := []struct {
		name   string
		input  ports.ExchangeInput
		errMsg string
	}{
		{name: "missing code", input: ports.ExchangeInput{State: "s", Nonce: "n"}, errMsg: "authorization code is required"},
		{name: "missing state", input: ports.ExchangeInput{Code: "c", Nonce: "n"}, errMsg: "state is required"},
		{name: "missing nonce", input: ports.ExchangeInput{Code: "c", State: "s"}, errMsg: "nonce is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Exchange(context.Background(), tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestProvider_Exchange_TokenEndpointFailure(t *testing.T) {
	p := createTestProvider(t)

	// The discovery server answers /token with a discovery document, which
	// carries no access_token.
	_, err := p.Exchange(context.Background(), ports.ExchangeInput{Code: "c", State: "s", Nonce: "n"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exchange code for token")
}

func TestIDTokenFrom(t *testing.T) {
	tok := (&oauth2.Token{}).WithExtra(map[string]any{"id_token": "abc.def.ghi"})
	raw, err := idTokenFrom(tok)
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", raw)

	_, err = idTokenFrom((&oauth2.Token{}).WithExtra(map[string]any{"other": "x"}))
	assert.ErrorContains(t, err, "missing id_token")

	_, err = idTokenFrom(nil)
	assert.ErrorContains(t, err, "nil token")
}

func TestIdentityClaims_MergeAndMap(t *testing.T) {
	c := identityClaims{Subject: "sub-1", GivenName: "Aysel", FamilyName: "Mammadova"}
	c.merge(identityClaims{
		Subject:       "ignored",
		Email:         " Aysel@Example.com ",
		EmailVerified: true,
		GivenName:     "ignored",
	})

	exp := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	id := c.identity(exp)
	assert.Equal(t, "sub-1", id.Subject)
	assert.Equal(t, "aysel@example.com", id.Email)
	assert.True(t, id.EmailVerified)
	assert.Equal(t, "Aysel Mammadova", id.Name)
	assert.Equal(t, exp, id.ExpiresAt)

	// An email already present keeps its own verification state.
	c2 := identityClaims{Subject: "s", Email: "a@example.com"}
	c2.merge(identityClaims{Email: "b@example.com", EmailVerified: true})
	assert.Equal(t, "a@example.com", c2.Email)
	assert.False(t, c2.EmailVerified)
}

func TestRandomToken(t *testing.T) {
	a, err := randomToken(16)
	require.NoError(t, err)
	assert.Len(t, a, 16)

	b, err := randomToken(16)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	empty, err := randomToken(0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
