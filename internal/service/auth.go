package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/indevian-dev/stuwin-api/internal/adapters/security"
	domainauth "github.com/indevian-dev/stuwin-api/internal/domain/auth"
	"github.com/indevian-dev/stuwin-api/internal/domain/model"
	apperrors "github.com/indevian-dev/stuwin-api/internal/errors"
	"github.com/indevian-dev/stuwin-api/internal/ports"
)

const (
	otpKeyPrefix = "otp:"
	ssoKeyPrefix = "sso:"
	ssoStateTTL  = 10 * time.Minute

	OTPChannelEmail = "email"
	OTPChannelSMS   = "sms"
)

// AuthConfig tunes AuthService.
type AuthConfig struct {
	SessionTTL     time.Duration
	OTPTTL         time.Duration
	OTPMaxAttempts int
	Now            func() time.Time
}

// AuthStores groups the persistence ports AuthService writes to.
type AuthStores struct {
	Accounts ports.AccountRepository
	Sessions ports.SessionStore
	Cache    ports.Cache
}

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Stores   AuthStores
	Hasher   ports.PasswordHasher
	Jobs     *JobService
	Provider ports.AuthProvider // nil disables SSO
	Logger   *slog.Logger
	Config   AuthConfig
}

// AuthService owns accounts, sessions and the second factor.
type AuthService struct {
	accounts ports.AccountRepository
	sessions ports.SessionStore
	cache    ports.Cache
	hasher   ports.PasswordHasher
	jobs     *JobService
	provider ports.AuthProvider
	logger   *slog.Logger

	sessionTTL     time.Duration
	otpTTL         time.Duration
	otpMaxAttempts int
	now            func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	if opts.Stores.Accounts == nil {
		panic("AccountRepository is required")
	}
	if opts.Stores.Sessions == nil {
		panic("SessionStore is required")
	}
	if opts.Stores.Cache == nil {
		panic("Cache is required")
	}
	if opts.Hasher == nil {
		panic("PasswordHasher is required")
	}
	if opts.Jobs == nil {
		panic("JobService is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 7 * 24 * time.Hour
	}
	if cfg.OTPTTL <= 0 {
		cfg.OTPTTL = 5 * time.Minute
	}
	if cfg.OTPMaxAttempts <= 0 {
		cfg.OTPMaxAttempts = 5
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &AuthService{
		accounts:       opts.Stores.Accounts,
		sessions:       opts.Stores.Sessions,
		cache:          opts.Stores.Cache,
		hasher:         opts.Hasher,
		jobs:           opts.Jobs,
		provider:       opts.Provider,
		logger:         logger.With("component", "auth"),
		sessionTTL:     cfg.SessionTTL,
		otpTTL:         cfg.OTPTTL,
		otpMaxAttempts: cfg.OTPMaxAttempts,
		now:            cfg.Now,
	}
}

// SSOEnabled reports whether an identity provider is configured.
func (s *AuthService) SSOEnabled() bool { return s.provider != nil }

var errInvalidCredentials = apperrors.Unauthorized("invalid email or password")

// Login checks a password and opens a session.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*ports.LoginResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	rec, err := s.accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			s.burnCompare(req.Password)
			return nil, errInvalidCredentials
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	if rec.Account.PasswordHash == "" {
		s.burnCompare(req.Password)
		return nil, errInvalidCredentials
	}
	if err := s.hasher.Compare(rec.Account.PasswordHash, req.Password); err != nil {
		return nil, errInvalidCredentials
	}
	if rec.Account.Suspended {
		return nil, apperrors.Forbidden("account is suspended")
	}
	return s.openSession(ctx, rec)
}

// burnCompare runs one comparison against a throwaway hash so unknown
// emails cost the same as wrong passwords.
func (s *AuthService) burnCompare(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash(uuid.NewString())
	})
	_ = s.hasher.Compare(s.dummyHash, password)
}

// Register creates a user and account and opens a session.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*ports.LoginResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	rec, err := s.accounts.Create(ctx, ports.CreateAccountInput{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: hash,
	})
	if err != nil {
		if apperrors.IsConflict(err) {
			conflict := apperrors.Conflict("email is already registered")
			conflict.Field = "email"
			return nil, conflict
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	s.logger.InfoContext(ctx, "account registered", "account_id", rec.Account.ID)
	return s.openSession(ctx, rec)
}

func (s *AuthService) openSession(ctx context.Context, rec *ports.AccountRecord) (*ports.LoginResult, error) {
	now := s.now().UTC()
	sess := domainauth.Session{
		ID:        uuid.NewString(),
		AccountID: rec.Account.ID,
		UserID:    rec.User.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return &ports.LoginResult{Session: sess, Account: rec.Account, User: rec.User}, nil
}

// Logout destroys the caller's session and any pending code.
func (s *AuthService) Logout(ctx context.Context, ac *domainauth.Context) error {
	if ac == nil || ac.Session == nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, ac.Session.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if _, err := s.cache.Delete(ctx, otpKeyPrefix+ac.Session.ID); err != nil {
		s.logger.WarnContext(ctx, "failed to drop otp challenge on logout", "error", err)
	}
	return nil
}

type otpChallenge struct {
	Hash      string    `json:"hash"`
	Attempts  int       `json:"attempts"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SendOTP issues a fresh code for the caller's session and queues its
// delivery. A new code replaces any pending one.
func (s *AuthService) SendOTP(ctx context.Context, ac *domainauth.Context, channel string) (*ports.OTPChallenge, error) {
	if ac == nil || ac.Session == nil || ac.Account == nil {
		return nil, apperrors.Unauthorized("authentication required")
	}
	if channel == "" {
		channel = OTPChannelEmail
	}
	var address string
	switch channel {
	case OTPChannelEmail:
		address = ac.Account.Email
	case OTPChannelSMS:
		address = ac.Account.Phone
	default:
		return nil, apperrors.ValidationField("channel", "channel must be email or sms")
	}
	if address == "" {
		return nil, apperrors.ValidationField("channel", "no "+channel+" address on file")
	}

	code, err := security.GenerateOTP()
	if err != nil {
		return nil, fmt.Errorf("generate otp: %w", err)
	}
	ch := otpChallenge{
		Hash:      security.HashOTP(ac.Session.ID, code),
		ExpiresAt: s.now().Add(s.otpTTL),
	}
	if err := s.storeChallenge(ctx, ac.Session.ID, ch, s.otpTTL); err != nil {
		return nil, err
	}

	if _, err := s.jobs.Enqueue(ctx, model.JobTopicOTPDeliver, model.OTPDelivery{
		AccountID: ac.Account.ID,
		Channel:   channel,
		Address:   address,
		Code:      code,
	}); err != nil {
		return nil, fmt.Errorf("queue otp delivery: %w", err)
	}
	return &ports.OTPChallenge{Channel: channel, ExpiresIn: int(s.otpTTL / time.Second)}, nil
}

// VerifyOTP checks code against the pending challenge. Exactly one caller
// can consume a challenge; on success the session is marked two-factor
// verified until it expires.
func (s *AuthService) VerifyOTP(ctx context.Context, ac *domainauth.Context, code string) error {
	if ac == nil || ac.Session == nil {
		return apperrors.Unauthorized("authentication required")
	}
	if code == "" {
		return apperrors.ValidationField("code", "code is required")
	}
	key := otpKeyPrefix + ac.Session.ID

	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("load otp challenge: %w", err)
	}
	if raw == nil {
		return apperrors.Validation("no pending verification code")
	}
	var ch otpChallenge
	if err := json.Unmarshal(raw, &ch); err != nil {
		return fmt.Errorf("decode otp challenge: %w", err)
	}

	if !security.OTPEqual(ac.Session.ID, code, ch.Hash) {
		return s.recordFailedAttempt(ctx, ac.Session.ID, ch)
	}

	consumed, err := s.cache.Delete(ctx, key)
	if err != nil {
		return fmt.Errorf("consume otp challenge: %w", err)
	}
	if !consumed {
		return apperrors.Validation("no pending verification code")
	}
	if err := s.sessions.MarkTwoFactorVerified(ctx, ac.Session.ID); err != nil {
		if errors.Is(err, ports.ErrSessionNotFound) {
			return apperrors.Unauthorized("session expired")
		}
		return fmt.Errorf("mark two-factor verified: %w", err)
	}
	s.logger.InfoContext(ctx, "two-factor verified", "account_id", ac.AccountID())
	return nil
}

func (s *AuthService) recordFailedAttempt(ctx context.Context, sessionID string, ch otpChallenge) error {
	ch.Attempts++
	remaining := ch.ExpiresAt.Sub(s.now())
	if ch.Attempts >= s.otpMaxAttempts || remaining <= 0 {
		if _, err := s.cache.Delete(ctx, otpKeyPrefix+sessionID); err != nil {
			return fmt.Errorf("drop otp challenge: %w", err)
		}
		return apperrors.Validation("too many invalid attempts; request a new code")
	}
	if err := s.storeChallenge(ctx, sessionID, ch, remaining); err != nil {
		return err
	}
	return apperrors.ValidationField("code", "invalid code")
}

func (s *AuthService) storeChallenge(ctx context.Context, sessionID string, ch otpChallenge, ttl time.Duration) error {
	raw, err := json.Marshal(ch)
	if err != nil {
		return fmt.Errorf("encode otp challenge: %w", err)
	}
	if err := s.cache.Set(ctx, otpKeyPrefix+sessionID, raw, ttl); err != nil {
		return fmt.Errorf("store otp challenge: %w", err)
	}
	return nil
}

var errSSODisabled = apperrors.NotFound("single sign-on is not enabled")

// BeginSSO starts an SSO flow. The nonce is kept server-side under the
// state until the callback.
func (s *AuthService) BeginSSO(ctx context.Context) (string, string, string, error) {
	if s.provider == nil {
		return "", "", "", errSSODisabled
	}
	authURL, state, nonce, err := s.provider.Begin(ctx, ports.BeginInput{})
	if err != nil {
		return "", "", "", fmt.Errorf("begin sso: %w", err)
	}
	if err := s.cache.Set(ctx, ssoKeyPrefix+state, []byte(nonce), ssoStateTTL); err != nil {
		return "", "", "", fmt.Errorf("store sso state: %w", err)
	}
	return authURL, state, nonce, nil
}

// CompleteSSO finishes an SSO flow. The state is single use. The identity's
// email must be verified by the provider and must belong to an existing
// account.
func (s *AuthService) CompleteSSO(ctx context.Context, in ports.ExchangeInput) (*ports.LoginResult, error) {
	if s.provider == nil {
		return nil, errSSODisabled
	}
	if in.Code == "" || in.State == "" {
		return nil, apperrors.Validation("code and state are required")
	}

	key := ssoKeyPrefix + in.State
	nonce, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load sso state: %w", err)
	}
	if nonce == nil {
		return nil, apperrors.Unauthorized("sso state is unknown or expired")
	}
	consumed, err := s.cache.Delete(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("consume sso state: %w", err)
	}
	if !consumed {
		return nil, apperrors.Unauthorized("sso state is unknown or expired")
	}

	identity, err := s.provider.Exchange(ctx, ports.ExchangeInput{Code: in.Code, State: in.State, Nonce: string(nonce)})
	if err != nil {
		s.logger.WarnContext(ctx, "sso exchange failed", "error", err)
		return nil, apperrors.Unauthorized("single sign-on failed")
	}
	if !identity.EmailVerified || identity.Email == "" {
		return nil, apperrors.Unauthorized("identity provider did not verify the email")
	}

	rec, err := s.accounts.GetByEmail(ctx, identity.Email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.Unauthorized("no account is registered for this identity")
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	if rec.Account.Suspended {
		return nil, apperrors.Forbidden("account is suspended")
	}
	s.logger.InfoContext(ctx, "sso login", "account_id", rec.Account.ID, "subject", identity.Subject)
	return s.openSession(ctx, rec)
}
