package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/indevian-dev/stuwin-api/config"
	"github.com/indevian-dev/stuwin-api/internal/domain/route"
	httpx "github.com/indevian-dev/stuwin-api/internal/http"
	"github.com/indevian-dev/stuwin-api/internal/observability/statsd"
)

// HTTPServerConfig contains what the HTTP server is built from.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services *Services
	Metrics  statsd.Sink
	DB       *sql.DB
	Redis    redis.UniversalClient
	Logger   *slog.Logger
}

// BuildHandler compiles the endpoint table and binds it to the services.
func BuildHandler(cfg *HTTPServerConfig) (http.Handler, error) {
	table, err := route.NewTable(httpx.DefaultEndpoints())
	if err != nil {
		return nil, fmt.Errorf("build endpoint table: %w", err)
	}

	pingers := map[string]httpx.Pinger{}
	if cfg.DB != nil {
		pingers["postgres"] = httpx.PingFunc(cfg.DB.PingContext)
	}
	if cfg.Redis != nil {
		client := cfg.Redis
		pingers["redis"] = httpx.PingFunc(func(ctx context.Context) error { return client.Ping(ctx).Err() })
	}

	app := cfg.Config
	return httpx.NewRouter(httpx.RouterServices{
		Table:    table,
		Sessions: cfg.Services.Resolver,
		Limiter:  cfg.Services.Limiter,
		Services: cfg.Services.Webhooks,
		Modules:  cfg.Services.Modules,
		Metrics:  cfg.Metrics,
		Pingers:  pingers,
		Gateway: httpx.GatewayConfig{
			CookieName:        app.Auth.SessionCookieName,
			CookieDomain:      app.HTTP.CookieDomain,
			TrustProxyHeaders: app.Gateway.TrustProxyHeaders,
			MaxBodyBytes:      app.Gateway.MaxBodyBytes,
			BaseURL:           app.HTTP.BaseURL,
		},
		Logger: cfg.Logger,
	})
}

// NewHTTPServer builds the server with configured timeouts.
func NewHTTPServer(cfg config.HTTPConfig, handler http.Handler) *http.Server {
	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// ServeUntilDone runs server until ctx is cancelled, then shuts it down
// within the configured timeout.
func ServeUntilDone(ctx context.Context, server *http.Server, cfg config.HTTPConfig, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.InfoContext(ctx, "shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	logger.InfoContext(ctx, "HTTP server stopped")
	return nil
}
