package config

import (
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, vars map[string]string) AppConfig {
	t.Helper()
	t.Setenv("NODE_ENV", "")
	var cfg AppConfig
	require.NoError(t, env.ParseWithOptions(&cfg, env.Options{Environment: vars}))
	cfg.Sanitize()
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := parse(t, map[string]string{})

	assert.False(t, cfg.IsDev)
	assert.Equal(t, StoreRedis, cfg.StoreBackend)
	assert.Equal(t, "session_id", cfg.Auth.SessionCookieName)
	assert.Equal(t, 168*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 2*time.Second, cfg.Webhooks.VerifyTimeout)
	assert.Equal(t, "Upstash", cfg.Webhooks.Queue.Issuer)
	assert.Equal(t, "data.metadata.workspaceId", cfg.Webhooks.Payment.WorkspaceIDPath)
	assert.Equal(t, int64(1<<20), cfg.Gateway.MaxBodyBytes)
}

func TestMemoryBackendAndBypassOnlyInDev(t *testing.T) {
	prod := parse(t, map[string]string{
		"STORE_BACKEND":             "memory",
		"WEBHOOK_SKIP_VERIFICATION": "true",
	})
	assert.Equal(t, StoreRedis, prod.StoreBackend)
	assert.False(t, prod.Webhooks.SkipVerification)

	dev := parse(t, map[string]string{
		"DEV":                       "true",
		"STORE_BACKEND":             "memory",
		"WEBHOOK_SKIP_VERIFICATION": "true",
	})
	assert.Equal(t, StoreMemory, dev.StoreBackend)
	assert.True(t, dev.Webhooks.SkipVerification)
}

func TestInvalidStoreBackend(t *testing.T) {
	var cfg AppConfig
	err := env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{"STORE_BACKEND": "etcd"}})
	assert.Error(t, err)
}

func TestQueueKeys(t *testing.T) {
	q := QueueWebhookConfig{CurrentSigningKey: "cur", NextSigningKey: "next"}
	assert.Equal(t, []string{"cur", "next"}, q.Keys())
	assert.Equal(t, []string{"next"}, QueueWebhookConfig{NextSigningKey: "next"}.Keys())
}

func TestPaymentSecretsTrimmed(t *testing.T) {
	cfg := parse(t, map[string]string{"WEBHOOK_PAYMENT_SECRETS": " a , ,b"})
	assert.Equal(t, []string{"a", "b"}, cfg.Webhooks.Payment.Secrets)
}

func TestValidate(t *testing.T) {
	cfg := parse(t, map[string]string{})
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WEBHOOK_QUEUE_CURRENT_SIGNING_KEY")
	assert.Contains(t, err.Error(), "GATEWAY_INTERNAL_API_KEY")

	cfg = parse(t, map[string]string{
		"WEBHOOK_QUEUE_CURRENT_SIGNING_KEY": "k",
		"WEBHOOK_PAYMENT_SECRETS":           "s",
		"GATEWAY_INTERNAL_API_KEY":          "api",
	})
	assert.NoError(t, cfg.Validate())

	dev := parse(t, map[string]string{"DEV": "true"})
	assert.NoError(t, dev.Validate())
}

func TestHTTPValidateCookieDomain(t *testing.T) {
	tests := []struct {
		domain  string
		wantErr bool
	}{
		{"", false},
		{"localhost", false},
		{"stuwin.example.com", false},
		{".example.com", false},
		{"co.uk", true},
		{"com", true},
	}
	for _, tt := range tests {
		h := HTTPConfig{BaseURL: "https://api.example.com", CookieDomain: tt.domain}
		h.Sanitize()
		if tt.wantErr {
			assert.Error(t, h.Validate(), tt.domain)
		} else {
			assert.NoError(t, h.Validate(), tt.domain)
		}
	}
}

func TestHTTPValidateBaseURL(t *testing.T) {
	h := HTTPConfig{BaseURL: "not a url"}
	h.Sanitize()
	assert.Error(t, h.Validate())
}

func TestAuthValidateSSO(t *testing.T) {
	a := AuthConfig{SSOEnabled: true}
	assert.Error(t, a.Validate())

	a.OAuth = OAuthConfig{ClientID: "id", DiscoveryURL: "https://idp.example.com"}
	assert.NoError(t, a.Validate())
}

func TestLogLevel(t *testing.T) {
	cfg := parse(t, map[string]string{"LOG_LEVEL": " DEBUG "})
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
	assert.Equal(t, -4, int(cfg.Observability.Level()))
}

func TestDevSSOOnlyInDev(t *testing.T) {
	prod := parse(t, map[string]string{"AUTH_SSO_ENABLED": "true", "AUTH_DEV_SSO_EMAIL": "dev@example.com"})
	assert.Empty(t, prod.Auth.DevSSOEmail)
	assert.Error(t, prod.Auth.Validate())

	dev := parse(t, map[string]string{"DEV": "true", "AUTH_SSO_ENABLED": "true", "AUTH_DEV_SSO_EMAIL": "dev@example.com"})
	assert.Equal(t, "dev@example.com", dev.Auth.DevSSOEmail)
	assert.NoError(t, dev.Auth.Validate())
}
