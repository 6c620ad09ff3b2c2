package httpx

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/indevian-dev/stuwin-api/internal/adapters/memory"
	"github.com/indevian-dev/stuwin-api/internal/adapters/webhooksig"
	domainauth "github.com/indevian-dev/stuwin-api/internal/domain/auth"
	"github.com/indevian-dev/stuwin-api/internal/domain/route"
	"github.com/indevian-dev/stuwin-api/internal/observability/correlation"
	"github.com/indevian-dev/stuwin-api/internal/observability/statsd"
	"github.com/indevian-dev/stuwin-api/internal/ports"
	"github.com/indevian-dev/stuwin-api/internal/service"
)

const (
	testPaymentSecret = "whsec_test"
	testAPIKey        = "internal-key"
)

type fakeSessions struct {
	mu      sync.Mutex
	byToken map[string]*domainauth.Context
	err     error
	calls   int
}

func (f *fakeSessions) Resolve(_ context.Context, token, _ string) (*domainauth.Context, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.byToken[token], nil
}

type stubFactory struct {
	mu   sync.Mutex
	last domainauth.Principal
}

func (f *stubFactory) For(p domainauth.Principal) ports.Modules {
	f.mu.Lock()
	f.last = p
	f.mu.Unlock()
	return ports.Modules{}
}

type gatewayFixture struct {
	gw       *Gateway
	sessions *fakeSessions
	factory  *stubFactory
	metrics  *statsd.Recorder
	seen     *RequestContext
}

func testEndpoints() []route.EndpointConfig {
	return []route.EndpointConfig{
		{Name: "ping", Pattern: "/ping", Methods: []string{http.MethodGet}, Public: true},
		{Name: "me", Pattern: "/me", Methods: []string{http.MethodGet}, Requirements: domainauth.Requirements{AuthRequired: true}},
		{
			Name: "secure", Pattern: "/workspaces/:workspaceId/secure", Methods: []string{http.MethodPost},
			Requirements: domainauth.Requirements{Permission: domainauth.PermMembersManage, RequiresTwoFactor: true},
		},
		{
			Name: "limited", Pattern: "/limited", Methods: []string{http.MethodGet}, Public: true,
			RateLimit: &route.RateLimit{Window: time.Minute, MaxRequests: 1},
		},
		{Name: "boom", Pattern: "/boom", Methods: []string{http.MethodGet}, Public: true},
		{Name: "fail", Pattern: "/fail", Methods: []string{http.MethodGet}, Public: true},
		{Name: "hook", Pattern: "/hooks/pay", Methods: []string{http.MethodPost}, Webhook: route.WebhookPayment},
		{Name: "internal", Pattern: "/internal/run", Methods: []string{http.MethodPost}, APIKey: true},
	}
}

func newGatewayFixture(t *testing.T) *gatewayFixture {
	t.Helper()
	table, err := route.NewTable(testEndpoints())
	require.NoError(t, err)

	f := &gatewayFixture{
		sessions: &fakeSessions{byToken: map[string]*domainauth.Context{}},
		factory:  &stubFactory{},
		metrics:  &statsd.Recorder{},
	}
	webhooks := service.NewWebhookService(service.WebhookServiceOptions{
		Verifiers: map[domainauth.ServiceScheme]ports.SignatureVerifier{
			domainauth.SchemePaymentSignature: webhooksig.NewPaymentVerifier([]string{testPaymentSecret}),
		},
		Config: service.WebhookServiceConfig{InternalAPIKey: testAPIKey},
	})
	f.gw = NewGateway(GatewayOptions{
		Table:    table,
		Sessions: f.sessions,
		Limiter:  service.NewRateLimiter(service.RateLimiterOptions{Counter: memory.NewRateCounter()}),
		Services: webhooks,
		Modules:  f.factory,
		Metrics:  f.metrics,
	})

	ok := func(rc *RequestContext, _ *http.Request) (Result, error) {
		f.seen = rc
		return OK(map[string]string{"endpoint": rc.Endpoint.Name}), nil
	}
	for _, name := range []string{"ping", "me", "secure", "limited", "hook", "internal"} {
		f.gw.Handle(name, ok)
	}
	f.gw.Handle("boom", func(*RequestContext, *http.Request) (Result, error) {
		panic("handler exploded")
	})
	f.gw.Handle("fail", func(*RequestContext, *http.Request) (Result, error) {
		return Result{}, errors.New("pq: connection to 10.0.0.5 refused")
	})
	require.NoError(t, f.gw.Validate())
	return f
}

func (f *gatewayFixture) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.gw.ServeHTTP(rec, req)
	return rec
}

func (f *gatewayFixture) login(token string, ac *domainauth.Context) *http.Cookie {
	f.sessions.byToken[token] = ac
	return &http.Cookie{Name: "session_id", Value: token}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Field   string          `json:"field"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func userContext(workspaceID string, twoFactor bool, perms ...domainauth.Permission) *domainauth.Context {
	raw := make([]string, 0, len(perms))
	for _, p := range perms {
		raw = append(raw, string(p))
	}
	set, _ := domainauth.NewPermissionSet(raw)
	return &domainauth.Context{
		User:              &domainauth.User{ID: "user-1"},
		Account:           &domainauth.Account{ID: "acct-1", UserID: "user-1", EmailVerified: true},
		Session:           &domainauth.Session{ID: "sess-1", AccountID: "acct-1", ExpiresAt: time.Now().Add(time.Hour)},
		ActiveWorkspaceID: workspaceID,
		Permissions:       set,
		TwoFactorVerified: twoFactor,
	}
}

func TestGateway_UnknownRoute(t *testing.T) {
	f := newGatewayFixture(t)
	rec := f.serve(httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, "NOT_FOUND", env.Code)

	points := f.metrics.Named("gateway.request")
	require.Len(t, points, 1)
	assert.Equal(t, "unmatched", points[0].Tags["endpoint"])
	assert.Equal(t, "404", points[0].Tags["status"])
}

func TestGateway_MethodNotAllowed(t *testing.T) {
	f := newGatewayFixture(t)
	rec := f.serve(httptest.NewRequest(http.MethodDelete, "/ping", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Header().Get("Allow"), http.MethodGet)
	assert.Equal(t, "METHOD_NOT_ALLOWED", decodeEnvelope(t, rec).Code)
}

func TestGateway_PublicSkipsSessionResolution(t *testing.T) {
	f := newGatewayFixture(t)
	rec := f.serve(httptest.NewRequest(http.MethodGet, "/ping/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	assert.JSONEq(t, `{"endpoint":"ping"}`, string(env.Data))
	assert.Equal(t, 0, f.sessions.calls)
	assert.Nil(t, f.factory.last)
}

func TestGateway_AuthRequired(t *testing.T) {
	f := newGatewayFixture(t)

	t.Run("no cookie", func(t *testing.T) {
		f.seen = nil
		rec := f.serve(httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "UNAUTHORIZED", decodeEnvelope(t, rec).Code)
		assert.Nil(t, f.seen, "handler must not run")
		denied := f.metrics.Named("gateway.denied")
		require.NotEmpty(t, denied)
		assert.Equal(t, "UNAUTHORIZED", denied[len(denied)-1].Tags["code"])
	})

	t.Run("unknown session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: "session_id", Value: "stale"})
		assert.Equal(t, http.StatusUnauthorized, f.serve(req).Code)
	})

	t.Run("valid session", func(t *testing.T) {
		ac := userContext("", false)
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(f.login("tok-1", ac))
		rec := f.serve(req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, f.seen)
		assert.Same(t, ac, f.seen.Auth)
		assert.Nil(t, f.seen.Service)
		assert.Same(t, ac, f.factory.last)
	})
}

func TestGateway_TwoFactorCheckedBeforePermission(t *testing.T) {
	f := newGatewayFixture(t)
	call := func(ac *domainauth.Context) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/workspaces/ws-1/secure", nil)
		req.AddCookie(f.login("tok", ac))
		return f.serve(req)
	}

	rec := call(userContext("", false))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "TWO_FACTOR_REQUIRED", decodeEnvelope(t, rec).Code)

	rec = call(userContext("ws-1", true))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", decodeEnvelope(t, rec).Code)

	rec = call(userContext("ws-1", true, domainauth.PermMembersManage))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ws-1", f.seen.WorkspaceID())
}

func TestGateway_SessionResolverFailureIsInternal(t *testing.T) {
	f := newGatewayFixture(t)
	f.sessions.err = errors.New("redis: connection refused")

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "tok"})
	rec := f.serve(req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "INTERNAL", env.Code)
	assert.NotContains(t, env.Error, "redis")
}

func TestGateway_RateLimit(t *testing.T) {
	f := newGatewayFixture(t)

	first := f.serve(httptest.NewRequest(http.MethodGet, "/limited", nil))
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", first.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, first.Header().Get("X-RateLimit-Reset"))

	second := f.serve(httptest.NewRequest(http.MethodGet, "/limited", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "RATE_LIMITED", decodeEnvelope(t, second).Code)
	assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
	assert.Len(t, f.metrics.Named("gateway.rate_limited"), 1)
}

func TestGateway_RateLimitConcurrentSingleAllow(t *testing.T) {
	f := newGatewayFixture(t)

	const n = 2
	codes := make([]int, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			codes[i] = f.serve(httptest.NewRequest(http.MethodGet, "/limited", nil)).Code
		}()
	}
	wg.Wait()

	allowed := 0
	for _, c := range codes {
		if c == http.StatusOK {
			allowed++
		}
	}
	assert.Equal(t, 1, allowed)
}

func TestGateway_PanicBecomesInternalEnvelope(t *testing.T) {
	f := newGatewayFixture(t)
	rec := f.serve(httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, "INTERNAL", env.Code)
	assert.Equal(t, "internal server error", env.Error)
}

func TestGateway_UnexpectedErrorIsGeneric(t *testing.T) {
	f := newGatewayFixture(t)
	rec := f.serve(httptest.NewRequest(http.MethodGet, "/fail", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
}

func TestGateway_CorrelationID(t *testing.T) {
	f := newGatewayFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(correlation.Header, "req-abc-123")
	rec := f.serve(req)
	assert.Equal(t, "req-abc-123", rec.Header().Get(correlation.Header))
	assert.Equal(t, "req-abc-123", f.seen.CorrelationID)

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(correlation.Header, "bad id with spaces")
	rec = f.serve(req)
	got := rec.Header().Get(correlation.Header)
	assert.NotEmpty(t, got)
	assert.NotEqual(t, "bad id with spaces", got)

	// Errors carry the id too.
	rec = f.serve(httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.NotEmpty(t, rec.Header().Get(correlation.Header))
}

func signPayment(body string) string {
	m := hmac.New(sha256.New, []byte(testPaymentSecret))
	m.Write([]byte(body))
	return "sha256=" + hex.EncodeToString(m.Sum(nil))
}

func TestGateway_WebhookSignature(t *testing.T) {
	f := newGatewayFixture(t)
	body := `{"id":"evt_1","type":"payment.succeeded"}`

	t.Run("tampered body", func(t *testing.T) {
		f.seen = nil
		req := httptest.NewRequest(http.MethodPost, "/hooks/pay", strings.NewReader(strings.Replace(body, "evt_1", "evt_2", 1)))
		req.Header.Set(PaymentSignatureHeader, signPayment(body))
		rec := f.serve(req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.Equal(t, "SIGNATURE_INVALID", env.Code)
		assert.Equal(t, "invalid signature", env.Error)
		assert.Nil(t, f.seen)
	})

	t.Run("signed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/hooks/pay", strings.NewReader(body))
		req.Header.Set(PaymentSignatureHeader, signPayment(body))
		rec := f.serve(req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, f.seen.Service)
		assert.Equal(t, domainauth.SchemePaymentSignature, f.seen.Service.Scheme)
		assert.Nil(t, f.seen.Auth)
		assert.Equal(t, body, string(f.seen.RawBody))
		assert.Same(t, f.seen.Service, f.factory.last)
	})

	verifies := f.metrics.Named("webhook.verify")
	require.Len(t, verifies, 2)
}

func TestGateway_WebhookBodyLimit(t *testing.T) {
	f := newGatewayFixture(t)
	f.gw.cfg.MaxBodyBytes = 8

	body := `{"id":"evt_1","type":"payment.succeeded"}`
	req := httptest.NewRequest(http.MethodPost, "/hooks/pay", strings.NewReader(body))
	req.Header.Set(PaymentSignatureHeader, signPayment(body))
	rec := f.serve(req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION", decodeEnvelope(t, rec).Code)
}

func TestGateway_APIKey(t *testing.T) {
	f := newGatewayFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/internal/run", strings.NewReader(`{}`))
	rec := f.serve(req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeEnvelope(t, rec).Code)

	req = httptest.NewRequest(http.MethodPost, "/internal/run", strings.NewReader(`{}`))
	req.Header.Set(APIKeyHeader, "wrong")
	assert.Equal(t, http.StatusUnauthorized, f.serve(req).Code)

	req = httptest.NewRequest(http.MethodPost, "/internal/run", strings.NewReader(`{"x":1}`))
	req.Header.Set(APIKeyHeader, testAPIKey)
	rec = f.serve(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domainauth.SchemeAPIKey, f.seen.Service.Scheme)
	assert.JSONEq(t, `{"x":1}`, string(f.seen.RawBody))
}

func TestGateway_Validate(t *testing.T) {
	table, err := route.NewTable(testEndpoints())
	require.NoError(t, err)
	gw := NewGateway(GatewayOptions{
		Table:    table,
		Sessions: &fakeSessions{},
		Limiter:  service.NewRateLimiter(service.RateLimiterOptions{Counter: memory.NewRateCounter()}),
		Modules:  &stubFactory{},
	})
	gw.Handle("ping", func(*RequestContext, *http.Request) (Result, error) { return Message("pong"), nil })

	err = gw.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoint me has no handler")
	assert.Contains(t, err.Error(), "endpoint hook needs a service authenticator")
	assert.NotContains(t, err.Error(), "endpoint ping")

	assert.Panics(t, func() {
		gw.Handle("not-declared", func(*RequestContext, *http.Request) (Result, error) { return Result{}, nil })
	})
}
