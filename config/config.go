package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: sessions, passwords, OTP and SSO
//   - database.go: Postgres and Redis
//   - http.go: HTTP server and cookies
//   - gateway.go: request gateway behaviour
//   - webhooks.go: webhook signature verification
//   - observability.go: logging and metrics
type AppConfig struct {
	// IsDev controls development mode behavior (in-memory stores, verbose logs).
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	Auth AuthConfig

	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	// StoreBackend selects where sessions, rate counters, OTP challenges and
	// jobs live. "memory" is only honoured in dev.
	StoreBackend StoreBackend `env:"STORE_BACKEND" envDefault:"redis"`

	HTTP     HTTPConfig
	Gateway  GatewayConfig
	Webhooks WebhookConfig

	Observability ObservabilityConfig
}

// StoreBackend names a shared-state backend.
type StoreBackend string

const (
	StoreRedis  StoreBackend = "redis"
	StoreMemory StoreBackend = "memory"
)

// UnmarshalText implements encoding.TextUnmarshaler for StoreBackend.
func (s *StoreBackend) UnmarshalText(text []byte) error {
	v := StoreBackend(strings.ToLower(strings.TrimSpace(string(text))))
	switch v {
	case StoreRedis, StoreMemory:
		*s = v
		return nil
	default:
		return fmt.Errorf("invalid StoreBackend: %q (valid options: redis, memory)", v)
	}
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.detectDevMode()

	c.Auth.Sanitize()
	c.HTTP.Sanitize()
	c.Gateway.Sanitize()
	c.Webhooks.Sanitize()
	c.Observability.Sanitize()

	if !c.IsDev {
		c.StoreBackend = StoreRedis
		c.Webhooks.SkipVerification = false
		c.Auth.DevSSOEmail = ""
	}
}

// Validate reports configuration that cannot run safely.
func (c *AppConfig) Validate() error {
	var errs []error
	if err := c.HTTP.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Auth.Validate(); err != nil {
		errs = append(errs, err)
	}
	if !c.IsDev {
		if err := c.Webhooks.Validate(); err != nil {
			errs = append(errs, err)
		}
		if c.Gateway.InternalAPIKey == "" {
			errs = append(errs, errors.New("GATEWAY_INTERNAL_API_KEY is required outside dev"))
		}
	}
	return errors.Join(errs...)
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}
