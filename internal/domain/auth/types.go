// Package auth contains domain-level types for authentication, sessions, and
// authorization decisions. It is pure and free of framework/adapter concerns.
package auth

import "time"

// ExternalIdentity is the principal returned by an SSO identity provider.
// Adapters map provider-specific claims into this shape.
type ExternalIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	ExpiresAt     time.Time
}

// Session is the server-side record persisted for a logged-in account.
// ID is the opaque token carried by the session cookie.
type Session struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`

	// TwoFactorVerified mirrors the side-channel flag kept next to the session.
	// Stores populate it on read; it is never serialized with the session body.
	TwoFactorVerified bool `json:"-"`
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// User is the person behind an account.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Account is the login identity owned by exactly one User.
type Account struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone,omitempty"`
	EmailVerified bool      `json:"email_verified"`
	PhoneVerified bool      `json:"phone_verified"`
	Suspended     bool      `json:"suspended"`
	PasswordHash  string    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
}
