package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	domainauth "github.com/indevian-dev/stuwin-api/internal/domain/auth"
	"github.com/indevian-dev/stuwin-api/internal/domain/route"
	apperrors "github.com/indevian-dev/stuwin-api/internal/errors"
	"github.com/indevian-dev/stuwin-api/internal/observability/correlation"
	"github.com/indevian-dev/stuwin-api/internal/observability/metrics"
	"github.com/indevian-dev/stuwin-api/internal/observability/statsd"
	"github.com/indevian-dev/stuwin-api/internal/ports"
	"github.com/indevian-dev/stuwin-api/internal/service"
)

const (
	// QueueSignatureHeader carries the queue relay's signed JWT.
	QueueSignatureHeader = "Upstash-Signature"
	// PaymentSignatureHeader carries the payment provider's HMAC.
	PaymentSignatureHeader = "X-Signature"
	// APIKeyHeader authenticates internal callers.
	APIKeyHeader = "X-Api-Key"

	defaultMaxBodyBytes = 1 << 20
)

// HandlerFunc serves one endpoint after every gateway check has passed.
type HandlerFunc func(rc *RequestContext, r *http.Request) (Result, error)

// SessionResolver turns a session token into an auth context.
type SessionResolver interface {
	Resolve(ctx context.Context, token, workspaceID string) (*domainauth.Context, error)
}

// RateLimiter counts requests per client and endpoint.
type RateLimiter interface {
	Check(ctx context.Context, clientKey, endpointKey string, limit *route.RateLimit) (service.RateLimitResult, error)
}

// ServiceAuthenticator authenticates webhook and internal callers.
type ServiceAuthenticator interface {
	VerifySignature(ctx context.Context, scheme domainauth.ServiceScheme, req ports.SignedRequest) (*domainauth.ServiceAccount, error)
	VerifyAPIKey(ctx context.Context, key string) (*domainauth.ServiceAccount, error)
}

// GatewayConfig tunes the gateway.
type GatewayConfig struct {
	CookieName        string
	CookieDomain      string
	TrustProxyHeaders bool
	MaxBodyBytes      int64
	// BaseURL is the public origin used to rebuild signed callback URLs.
	BaseURL string
}

// GatewayOptions groups dependencies for Gateway.
type GatewayOptions struct {
	Table    *route.Table
	Sessions SessionResolver
	Limiter  RateLimiter
	Services ServiceAuthenticator
	Modules  ports.ModuleFactory
	Metrics  statsd.Sink
	Logger   *slog.Logger
	Config   GatewayConfig
}

// Gateway routes, authenticates, authorizes and rate limits every request
// before handing it to the handler bound to the matched endpoint.
type Gateway struct {
	table    *route.Table
	sessions SessionResolver
	limiter  RateLimiter
	services ServiceAuthenticator
	modules  ports.ModuleFactory
	metrics  statsd.Sink
	logger   *slog.Logger
	cfg      GatewayConfig
	cookies  cookieConfig
	handlers map[string]HandlerFunc
}

// NewGateway constructs a Gateway.
func NewGateway(opts GatewayOptions) *Gateway {
	if opts.Table == nil {
		panic("route Table is required")
	}
	if opts.Sessions == nil {
		panic("SessionResolver is required")
	}
	if opts.Limiter == nil {
		panic("RateLimiter is required")
	}
	if opts.Modules == nil {
		panic("ModuleFactory is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config
	if cfg.CookieName == "" {
		cfg.CookieName = "session_id"
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Gateway{
		table:    opts.Table,
		sessions: opts.Sessions,
		limiter:  opts.Limiter,
		services: opts.Services,
		modules:  opts.Modules,
		metrics:  opts.Metrics,
		logger:   logger.With("component", "gateway"),
		cfg:      cfg,
		cookies:  cookieConfig{sessionName: cfg.CookieName, domain: cfg.CookieDomain},
		handlers: make(map[string]HandlerFunc),
	}
}

// Handle binds h to the endpoint called name. Binding an undeclared
// endpoint is a programming error.
func (g *Gateway) Handle(name string, h HandlerFunc) {
	if h == nil {
		panic("nil handler for " + name)
	}
	for _, ep := range g.table.Endpoints() {
		if ep.Name == name {
			g.handlers[name] = h
			return
		}
	}
	panic("unknown endpoint " + name)
}

// Validate reports endpoints that cannot be served.
func (g *Gateway) Validate() error {
	var errs []error
	for _, ep := range g.table.Endpoints() {
		if _, ok := g.handlers[ep.Name]; !ok {
			errs = append(errs, fmt.Errorf("endpoint %s has no handler", ep.Name))
		}
		if (ep.Webhook != route.WebhookNone || ep.APIKey) && g.services == nil {
			errs = append(errs, fmt.Errorf("endpoint %s needs a service authenticator", ep.Name))
		}
	}
	return errors.Join(errs...)
}

// ServeHTTP implements http.Handler.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	cid := correlation.FromHeader(r.Header.Get(correlation.Header))
	w.Header().Set(correlation.Header, cid)
	r = r.WithContext(correlation.WithID(r.Context(), cid))
	logger := g.logger.With("correlation_id", cid)

	rw := &respWriter{ResponseWriter: w, status: http.StatusOK}
	endpoint := ""
	defer func() {
		if rec := recover(); rec != nil {
			logger.ErrorContext(r.Context(), "panic recovered", "panic", rec, "endpoint", endpoint)
			if !rw.wroteHeader {
				writeInternal(rw)
			}
		}
		dur := time.Since(start)
		logRequest(logger, r, requestLog{
			method: r.Method, path: r.URL.Path, endpoint: endpoint, status: rw.status, duration: dur,
		})
		metrics.EmitRequest(g.metrics, metrics.RequestMetric{
			Endpoint: endpoint, Method: r.Method, Status: rw.status, Duration: dur,
		})
	}()

	match := g.table.Resolve(r.URL.Path, r.Method)
	if match.MethodNotAllowed {
		rw.Header().Set("Allow", strings.Join(match.Allowed, ", "))
		writeAppError(rw, &apperrors.AppError{Code: apperrors.ErrCodeMethodNotAllowed, Message: "method not allowed"})
		return
	}
	if !match.Valid {
		writeAppError(rw, apperrors.NotFound("route not found"))
		return
	}
	ep := match.Endpoint
	endpoint = ep.Name

	h, ok := g.handlers[ep.Name]
	if !ok {
		logger.ErrorContext(r.Context(), "endpoint has no handler", "endpoint", ep.Name)
		writeInternal(rw)
		return
	}

	r.Body = http.MaxBytesReader(rw, r.Body, g.cfg.MaxBodyBytes)
	rc := &RequestContext{
		Endpoint:      ep,
		Params:        match.Params,
		Logger:        logger.With("endpoint", ep.Name),
		CorrelationID: cid,
		w:             rw,
		cookies:       g.cookies,
	}

	var principal domainauth.Principal
	var err error
	switch {
	case ep.Webhook != route.WebhookNone:
		principal, err = g.authenticateWebhook(rc, r)
	case ep.APIKey:
		principal, err = g.authenticateAPIKey(rc, r)
	default:
		principal, err = g.authenticateUser(rc, r)
	}
	if err != nil {
		g.writeError(rc, rw, r, err)
		return
	}

	if ep.RateLimit != nil && !g.allow(rc, rw, r) {
		return
	}

	rc.Modules = g.modules.For(principal)
	res, err := h(rc, r)
	if err != nil {
		g.writeError(rc, rw, r, err)
		return
	}
	writeResult(rw, r, res)
}

func (g *Gateway) authenticateUser(rc *RequestContext, r *http.Request) (domainauth.Principal, error) {
	ep := rc.Endpoint
	if !ep.Public {
		token := ""
		if c, err := r.Cookie(g.cfg.CookieName); err == nil {
			token = c.Value
		}
		ac, err := g.sessions.Resolve(r.Context(), token, rc.WorkspaceID())
		if err != nil {
			return nil, fmt.Errorf("resolve session: %w", err)
		}
		rc.Auth = ac
	}

	// Requirements are enforced even on public endpoints, so a public route
	// that declares one denies instead of silently allowing.
	d := domainauth.Authorize(ep.Requirements, rc.Auth)
	if !d.Allowed {
		metrics.EmitDenied(g.metrics, ep.Name, string(d.Code))
		rc.Logger.DebugContext(r.Context(), "request denied", "code", d.Code, "reason", d.Reason)
		return nil, denyError(d)
	}
	if rc.Auth == nil {
		return nil, nil
	}
	return rc.Auth, nil
}

func denyError(d domainauth.Decision) *apperrors.AppError {
	msg := d.Reason
	if msg == "" {
		msg = "access denied"
	}
	return &apperrors.AppError{Code: apperrors.ErrorCode(d.Code), Message: msg}
}

func (g *Gateway) authenticateWebhook(rc *RequestContext, r *http.Request) (domainauth.Principal, error) {
	body, err := readBody(r)
	if err != nil {
		return nil, err
	}
	rc.RawBody = body

	scheme, header := domainauth.SchemeQueueSignature, QueueSignatureHeader
	if rc.Endpoint.Webhook == route.WebhookPayment {
		scheme, header = domainauth.SchemePaymentSignature, PaymentSignatureHeader
	}
	sa, err := g.services.VerifySignature(r.Context(), scheme, ports.SignedRequest{
		Body:      body,
		Signature: r.Header.Get(header),
		URL:       g.cfg.BaseURL + r.URL.Path,
	})
	metrics.EmitWebhookVerify(g.metrics, string(scheme), err)
	if err != nil {
		return nil, err
	}
	rc.Service = sa
	return sa, nil
}

func (g *Gateway) authenticateAPIKey(rc *RequestContext, r *http.Request) (domainauth.Principal, error) {
	sa, err := g.services.VerifyAPIKey(r.Context(), r.Header.Get(APIKeyHeader))
	if err != nil {
		return nil, err
	}
	body, err := readBody(r)
	if err != nil {
		return nil, err
	}
	rc.RawBody = body
	rc.Service = sa
	return sa, nil
}

func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, apperrors.Validation("request body is too large")
		}
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// allow applies the endpoint rate limit and writes the 429 itself.
func (g *Gateway) allow(rc *RequestContext, w http.ResponseWriter, r *http.Request) bool {
	ep := rc.Endpoint
	key := service.ClientKey(r, rc.Auth.AccountID(), g.cfg.TrustProxyHeaders)
	res, err := g.limiter.Check(r.Context(), key, ep.Key(), ep.RateLimit)
	if err != nil {
		rc.Logger.ErrorContext(r.Context(), "rate limit check failed", "error", err)
		writeInternal(w)
		return false
	}

	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
	if res.Allowed {
		return true
	}

	secs := int((res.RetryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	h.Set("Retry-After", strconv.Itoa(secs))
	metrics.EmitRateLimited(g.metrics, ep.Name)
	writeAppError(w, apperrors.RateLimited("too many requests"))
	return false
}

func (g *Gateway) writeError(rc *RequestContext, w http.ResponseWriter, r *http.Request, err error) {
	if ae, ok := apperrors.As(err); ok {
		if !ae.Code.Public() {
			rc.Logger.ErrorContext(r.Context(), "request failed", "code", ae.Code, "error", err)
		}
		writeAppError(w, ae)
		return
	}
	rc.Logger.ErrorContext(r.Context(), "request failed", "error", err)
	writeInternal(w)
}
