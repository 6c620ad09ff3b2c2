// Package oidc signs accounts in through an external OpenID Connect provider.
package oidc

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	domainauth "github.com/indevian-dev/stuwin-api/internal/domain/auth"
	"github.com/indevian-dev/stuwin-api/internal/ports"
)

// Provider implements ports.AuthProvider with go-oidc and oauth2.
type Provider struct {
	config   *oauth2.Config
	provider *gooidc.Provider
	verifier *gooidc.IDTokenVerifier
	now      func() time.Time
}

var _ ports.AuthProvider = (*Provider)(nil)

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scope        string
	DiscoveryURL string
	HTTPClient   *http.Client // defaults to a client with a 30s timeout
}

// NewProvider fetches the discovery document once and builds the provider.
func NewProvider(ctx context.Context, cfg ProviderConfig) (*Provider, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if cfg.ClientSecret == "" {
		return nil, errors.New("client secret is required")
	}
	if cfg.RedirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}
	if cfg.DiscoveryURL == "" {
		return nil, errors.New("discovery URL is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	ctx = gooidc.ClientContext(ctx, httpClient)

	issuer := strings.TrimSuffix(cfg.DiscoveryURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	op, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}

	scopes := strings.Fields(cfg.Scope)
	if len(scopes) == 0 {
		scopes = []string{gooidc.ScopeOpenID, "email", "profile"}
	}
	if !slices.Contains(scopes, gooidc.ScopeOpenID) {
		return nil, errors.New("scope must include openid")
	}

	return &Provider{
		provider: op,
		verifier: op.Verifier(&gooidc.Config{ClientID: cfg.ClientID}),
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     op.Endpoint(),
		},
		now: time.Now,
	}, nil
}

// Begin returns the provider authorization URL with a fresh state and nonce.
// The redirect URI is fixed by configuration and must match it exactly.
func (p *Provider) Begin(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
	state, err := randomToken(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomToken(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}

	authURL := p.config.AuthCodeURL(state,
		gooidc.Nonce(nonce),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
	return authURL, state, nonce, nil
}

// Exchange redeems the code, verifies the ID token and its nonce, and fills
// gaps from the userinfo endpoint. State is compared by the caller before
// Exchange runs; it is required here so a flow without one never proceeds.
func (p *Provider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.ExternalIdentity, error) {
	var none domainauth.ExternalIdentity
	if in.Code == "" {
		return none, errors.New("authorization code is required")
	}
	if in.State == "" {
		return none, errors.New("state is required")
	}
	if in.Nonce == "" {
		return none, errors.New("nonce is required")
	}

	token, err := p.config.Exchange(ctx, in.Code)
	if err != nil {
		return none, fmt.Errorf("exchange code for token: %w", err)
	}

	claims, err := p.verifyIDToken(ctx, token, in.Nonce)
	if err != nil {
		return none, err
	}

	if claims.Email == "" || claims.Subject == "" {
		ui, uiErr := p.provider.UserInfo(ctx, oauth2.StaticTokenSource(token))
		if uiErr != nil {
			return none, fmt.Errorf("fetch user info: %w", uiErr)
		}
		var extra identityClaims
		if uiErr = ui.Claims(&extra); uiErr != nil {
			return none, fmt.Errorf("decode user info: %w", uiErr)
		}
		claims.merge(extra)
	}

	if claims.Subject == "" {
		return none, errors.New("identity has no subject")
	}

	expiresAt := p.now().Add(time.Hour)
	if !token.Expiry.IsZero() {
		expiresAt = token.Expiry
	}
	return claims.identity(expiresAt), nil
}

func (p *Provider) verifyIDToken(ctx context.Context, tok *oauth2.Token, nonce string) (identityClaims, error) {
	var c identityClaims
	raw, err := idTokenFrom(tok)
	if err != nil {
		return c, err
	}
	idTok, err := p.verifier.Verify(ctx, raw)
	if err != nil {
		return c, fmt.Errorf("verify id_token: %w", err)
	}
	if idTok.Nonce != nonce {
		return c, errors.New("invalid nonce")
	}
	if err := idTok.Claims(&c); err != nil {
		return c, fmt.Errorf("parse id_token claims: %w", err)
	}
	return c, nil
}

// identityClaims is the subset of standard OIDC claims we read from both the
// ID token and the userinfo response.
type identityClaims struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
}

// merge fills empty fields from other. A verified email from userinfo only
// counts when it is the email being taken.
func (c *identityClaims) merge(other identityClaims) {
	if c.Subject == "" {
		c.Subject = other.Subject
	}
	if c.Email == "" {
		c.Email = other.Email
		c.EmailVerified = other.EmailVerified
	}
	if c.Name == "" {
		c.Name = other.Name
	}
	if c.GivenName == "" {
		c.GivenName = other.GivenName
	}
	if c.FamilyName == "" {
		c.FamilyName = other.FamilyName
	}
}

func (c identityClaims) identity(expiresAt time.Time) domainauth.ExternalIdentity {
	name := c.Name
	if name == "" {
		name = strings.TrimSpace(c.GivenName + " " + c.FamilyName)
	}
	return domainauth.ExternalIdentity{
		Subject:       c.Subject,
		Email:         strings.ToLower(strings.TrimSpace(c.Email)),
		EmailVerified: c.EmailVerified,
		Name:          name,
		ExpiresAt:     expiresAt,
	}
}

// randomToken returns a URL-safe random string of exactly length characters.
func randomToken(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}
	b := make([]byte, (length*3+3)/4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b)[:length], nil
}

func idTokenFrom(tok *oauth2.Token) (string, error) {
	if tok == nil {
		return "", errors.New("nil token")
	}
	s, ok := tok.Extra("id_token").(string)
	if !ok || s == "" {
		return "", errors.New("missing id_token in token response")
	}
	return s, nil
}
