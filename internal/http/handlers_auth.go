package httpx

import (
	"crypto/subtle"
	"net/http"
	"time"

	domainauth "github.com/indevian-dev/stuwin-api/internal/domain/auth"
	"github.com/indevian-dev/stuwin-api/internal/domain/model"
	apperrors "github.com/indevian-dev/stuwin-api/internal/errors"
	"github.com/indevian-dev/stuwin-api/internal/ports"
)

const (
	ssoStateCookie = "sso_state"
	ssoStateTTL    = 10 * time.Minute
)

// AuthHandlers serves the account and session endpoints.
type AuthHandlers struct {
	// PostLoginRedirect is where the SSO callback sends the browser.
	PostLoginRedirect string
}

type sessionInfo struct {
	ID        string    `json:"id"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type sessionResponse struct {
	Session   sessionInfo        `json:"session"`
	User      domainauth.User    `json:"user"`
	Account   domainauth.Account `json:"account"`
	ExpiresAt time.Time          `json:"expiresAt"`
}

func newSessionResponse(res *ports.LoginResult) sessionResponse {
	return sessionResponse{
		Session:   sessionInfo{ID: res.Session.ID, ExpiresAt: res.Session.ExpiresAt},
		User:      res.User,
		Account:   res.Account,
		ExpiresAt: res.Session.ExpiresAt,
	}
}

type currentResponse struct {
	User              domainauth.User    `json:"user"`
	Account           domainauth.Account `json:"account"`
	TwoFactorVerified bool               `json:"twoFactorVerified"`
	ExpiresAt         time.Time          `json:"expiresAt"`
}

// Login handles POST /auth/login.
func (h AuthHandlers) Login(rc *RequestContext, r *http.Request) (Result, error) {
	var req model.LoginRequest
	if err := DecodeJSON(r.Body, &req); err != nil {
		return Result{}, err
	}
	res, err := rc.Modules.Auth.Login(r.Context(), req)
	if err != nil {
		return Result{}, err
	}
	rc.SetSessionCookie(r, res.Session)
	return OK(newSessionResponse(res)), nil
}

// Register handles POST /auth/register.
func (h AuthHandlers) Register(rc *RequestContext, r *http.Request) (Result, error) {
	var req model.RegisterRequest
	if err := DecodeJSON(r.Body, &req); err != nil {
		return Result{}, err
	}
	res, err := rc.Modules.Auth.Register(r.Context(), req)
	if err != nil {
		return Result{}, err
	}
	rc.SetSessionCookie(r, res.Session)
	return Created(newSessionResponse(res)), nil
}

// Current handles GET /auth.
func (h AuthHandlers) Current(rc *RequestContext, r *http.Request) (Result, error) {
	ac, err := rc.Modules.Auth.Current(r.Context())
	if err != nil {
		return Result{}, err
	}
	if ac == nil || ac.User == nil || ac.Account == nil || ac.Session == nil {
		return Result{}, apperrors.Unauthorized("authentication required")
	}
	return OK(currentResponse{
		User:              *ac.User,
		Account:           *ac.Account,
		TwoFactorVerified: ac.TwoFactorVerified,
		ExpiresAt:         ac.Session.ExpiresAt,
	}), nil
}

// Logout handles POST /auth/logout.
func (h AuthHandlers) Logout(rc *RequestContext, r *http.Request) (Result, error) {
	if err := rc.Modules.Auth.Logout(r.Context()); err != nil {
		return Result{}, err
	}
	rc.ClearSessionCookie(r)
	return Message("logged out"), nil
}

type sendOTPRequest struct {
	Channel string `json:"channel"`
}

// SendOTP handles POST /auth/otp/send. The body is optional.
func (h AuthHandlers) SendOTP(rc *RequestContext, r *http.Request) (Result, error) {
	var req sendOTPRequest
	if hasBody(r) {
		if err := DecodeJSON(r.Body, &req); err != nil {
			return Result{}, err
		}
	}
	ch, err := rc.Modules.Auth.SendOTP(r.Context(), req.Channel)
	if err != nil {
		return Result{}, err
	}
	return Result{Status: http.StatusOK, Data: ch, Message: "verification code sent"}, nil
}

type verifyOTPRequest struct {
	Code string `json:"code"`
}

// VerifyOTP handles POST /auth/otp/verify.
func (h AuthHandlers) VerifyOTP(rc *RequestContext, r *http.Request) (Result, error) {
	var req verifyOTPRequest
	if err := DecodeJSON(r.Body, &req); err != nil {
		return Result{}, err
	}
	if err := rc.Modules.Auth.VerifyOTP(r.Context(), req.Code); err != nil {
		return Result{}, err
	}
	return Message("two-factor verification complete"), nil
}

// SSOLogin handles GET /auth/sso/login by redirecting to the identity provider.
func (h AuthHandlers) SSOLogin(rc *RequestContext, r *http.Request) (Result, error) {
	authURL, state, _, err := rc.Modules.Auth.BeginSSO(r.Context())
	if err != nil {
		return Result{}, err
	}
	rc.SetCookie(r, ssoStateCookie, state, ssoStateTTL)
	return Redirect(authURL), nil
}

// SSOCallback handles GET /auth/sso/callback. The state must match the
// cookie set by SSOLogin.
func (h AuthHandlers) SSOCallback(rc *RequestContext, r *http.Request) (Result, error) {
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		rc.Logger.WarnContext(r.Context(), "identity provider returned an error", "error", e)
		return Result{}, apperrors.Unauthorized("single sign-on failed")
	}

	state := q.Get("state")
	c, err := r.Cookie(ssoStateCookie)
	if err != nil || state == "" || subtle.ConstantTimeCompare([]byte(c.Value), []byte(state)) != 1 {
		return Result{}, apperrors.Unauthorized("invalid sign-on state")
	}
	rc.ClearCookie(r, ssoStateCookie)

	res, err := rc.Modules.Auth.CompleteSSO(r.Context(), ports.ExchangeInput{Code: q.Get("code"), State: state})
	if err != nil {
		return Result{}, err
	}
	rc.SetSessionCookie(r, res.Session)

	if h.PostLoginRedirect != "" {
		return Redirect(h.PostLoginRedirect), nil
	}
	return OK(newSessionResponse(res)), nil
}
