package config

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// OAuthConfig contains OAuth/OIDC configuration for optional SSO login.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/sso/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	SessionCookieName string        `env:"AUTH_SESSION_COOKIE_NAME" envDefault:"session_id"`
	SessionTTL        time.Duration `env:"AUTH_SESSION_TTL"         envDefault:"168h"`

	BcryptCost int `env:"AUTH_BCRYPT_COST" envDefault:"12"`

	OTPTTL         time.Duration `env:"AUTH_OTP_TTL"          envDefault:"5m"`
	OTPMaxAttempts int           `env:"AUTH_OTP_MAX_ATTEMPTS" envDefault:"5"`

	// SSOEnabled turns on the OIDC login endpoints.
	SSOEnabled bool        `env:"AUTH_SSO_ENABLED" envDefault:"false"`
	OAuth      OAuthConfig `envPrefix:"OAUTH_"`

	// DevSSOEmail replaces the identity provider with a local one that signs
	// in as this address. Cleared outside dev.
	DevSSOEmail string `env:"AUTH_DEV_SSO_EMAIL"`
}

// Sanitize clamps auth values into safe ranges.
func (a *AuthConfig) Sanitize() {
	if a.SessionCookieName == "" {
		a.SessionCookieName = "session_id"
	}
	if a.SessionTTL <= 0 {
		a.SessionTTL = 168 * time.Hour
	}
	if a.BcryptCost < bcrypt.MinCost || a.BcryptCost > bcrypt.MaxCost {
		a.BcryptCost = bcrypt.DefaultCost
	}
	if a.OTPTTL <= 0 {
		a.OTPTTL = 5 * time.Minute
	}
	if a.OTPMaxAttempts <= 0 {
		a.OTPMaxAttempts = 5
	}
}

// Validate checks SSO settings when SSO is on.
func (a *AuthConfig) Validate() error {
	if !a.SSOEnabled || a.DevSSOEmail != "" {
		return nil
	}
	if a.OAuth.ClientID == "" || a.OAuth.DiscoveryURL == "" {
		return errors.New("AUTH_SSO_ENABLED requires OAUTH_CLIENT_ID and OAUTH_DISCOVERY_URL")
	}
	return nil
}
