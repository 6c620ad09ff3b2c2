package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/indevian-dev/stuwin-api/config"
	"github.com/indevian-dev/stuwin-api/internal/adapters/devauth"
	"github.com/indevian-dev/stuwin-api/internal/adapters/oidc"
	"github.com/indevian-dev/stuwin-api/internal/adapters/otplog"
	"github.com/indevian-dev/stuwin-api/internal/adapters/security"
	"github.com/indevian-dev/stuwin-api/internal/adapters/webhooksig"
	"github.com/indevian-dev/stuwin-api/internal/data"
	domainauth "github.com/indevian-dev/stuwin-api/internal/domain/auth"
	"github.com/indevian-dev/stuwin-api/internal/domain/model"
	"github.com/indevian-dev/stuwin-api/internal/observability/statsd"
	"github.com/indevian-dev/stuwin-api/internal/ports"
	"github.com/indevian-dev/stuwin-api/internal/service"
)

// Repositories are the Postgres-backed persistence ports.
type Repositories struct {
	Accounts    ports.AccountRepository
	Memberships ports.MembershipRepository
	Workspaces  ports.WorkspaceRepository
	Bookmarks   ports.BookmarkRepository
	Payments    ports.PaymentEventRepository
}

// NewRepositories builds every repository on db.
func NewRepositories(db *sql.DB) Repositories {
	return Repositories{
		Accounts:    data.NewAccountRepo(db),
		Memberships: data.NewMembershipRepo(db),
		Workspaces:  data.NewWorkspaceRepo(db),
		Bookmarks:   data.NewBookmarkRepo(db),
		Payments:    data.NewPaymentEventRepo(db),
	}
}

// ServiceDeps contains everything NewServices wires together.
type ServiceDeps struct {
	Config       *config.AppConfig
	Repositories Repositories
	Stores       Stores
	Metrics      statsd.Sink
	// Provider is the SSO identity provider; nil disables SSO.
	Provider ports.AuthProvider
	Logger   *slog.Logger
}

// Services holds the constructed application services.
type Services struct {
	Auth       *service.AuthService
	Jobs       *service.JobService
	Workspaces *service.WorkspaceService
	Bookmarks  *service.BookmarkService
	Payments   *service.PaymentService
	Webhooks   *service.WebhookService
	Resolver   *service.SessionResolver
	Limiter    *service.RateLimiter
	Modules    *service.ModuleFactory
}

// NewServices wires the application services.
func NewServices(deps ServiceDeps) (*Services, error) {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	repos := deps.Repositories

	jobs := service.NewJobService(service.JobServiceOptions{
		Queue:   deps.Stores.Queue,
		Logger:  logger,
		Metrics: deps.Metrics,
		Config:  service.JobServiceConfig{Inline: deps.Stores.InlineJobs},
	})
	jobs.Register(model.JobTopicOTPDeliver, service.OTPDeliveryProcessor(otplog.New(logger, cfg.IsDev)))

	auth := service.NewAuthService(service.AuthServiceOptions{
		Stores: service.AuthStores{
			Accounts: repos.Accounts,
			Sessions: deps.Stores.Sessions,
			Cache:    deps.Stores.Cache,
		},
		Hasher:   security.NewHasher(cfg.Auth.BcryptCost),
		Jobs:     jobs,
		Provider: deps.Provider,
		Logger:   logger,
		Config: service.AuthConfig{
			SessionTTL:     cfg.Auth.SessionTTL,
			OTPTTL:         cfg.Auth.OTPTTL,
			OTPMaxAttempts: cfg.Auth.OTPMaxAttempts,
		},
	})

	p := cfg.Webhooks.Payment
	payments, err := service.NewPaymentService(service.PaymentServiceOptions{
		Repo: repos.Payments,
		Paths: service.PaymentPaths{
			EventID:     p.EventIDPath,
			EventType:   p.EventTypePath,
			WorkspaceID: p.WorkspaceIDPath,
			Status:      p.StatusPath,
			Amount:      p.AmountPath,
		},
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("payment service: %w", err)
	}

	webhooks := service.NewWebhookService(service.WebhookServiceOptions{
		Verifiers: map[domainauth.ServiceScheme]ports.SignatureVerifier{
			domainauth.SchemeQueueSignature: webhooksig.NewQueueVerifier(webhooksig.QueueVerifierOptions{
				Keys:   cfg.Webhooks.Queue.Keys(),
				Issuer: cfg.Webhooks.Queue.Issuer,
			}),
			domainauth.SchemePaymentSignature: webhooksig.NewPaymentVerifier(p.Secrets),
		},
		Logger: logger,
		Config: service.WebhookServiceConfig{
			VerifyTimeout:    cfg.Webhooks.VerifyTimeout,
			SkipVerification: cfg.Webhooks.SkipVerification,
			Dev:              cfg.IsDev,
			InternalAPIKey:   cfg.Gateway.InternalAPIKey,
		},
	})

	workspaces := service.NewWorkspaceService(service.WorkspaceServiceOptions{
		Workspaces:  repos.Workspaces,
		Memberships: repos.Memberships,
		Logger:      logger,
	})
	bookmarks := service.NewBookmarkService(service.BookmarkServiceOptions{Repo: repos.Bookmarks, Logger: logger})

	return &Services{
		Auth:       auth,
		Jobs:       jobs,
		Workspaces: workspaces,
		Bookmarks:  bookmarks,
		Payments:   payments,
		Webhooks:   webhooks,
		Resolver: service.NewSessionResolver(service.SessionResolverOptions{
			Sessions:    deps.Stores.Sessions,
			Accounts:    repos.Accounts,
			Memberships: repos.Memberships,
			Logger:      logger,
		}),
		Limiter: service.NewRateLimiter(service.RateLimiterOptions{Counter: deps.Stores.Counter}),
		Modules: service.NewModuleFactory(service.ModuleFactoryOptions{
			Auth:       auth,
			Workspaces: workspaces,
			Bookmarks:  bookmarks,
			Jobs:       jobs,
			Payments:   payments,
		}),
	}, nil
}

// NewAuthProvider builds the SSO provider when SSO is enabled and returns
// nil otherwise. Dev may substitute a local provider.
//
//nolint:ireturn // nil interface signals SSO is disabled.
func NewAuthProvider(ctx context.Context, cfg config.AuthConfig, logger *slog.Logger) (ports.AuthProvider, error) {
	if !cfg.SSOEnabled {
		return nil, nil
	}
	if cfg.DevSSOEmail != "" {
		logger.WarnContext(ctx, "single sign-on uses the local dev provider", "email", cfg.DevSSOEmail)
		dp, err := devauth.NewProvider(devauth.Config{Email: cfg.DevSSOEmail, SessionDuration: cfg.SessionTTL})
		if err != nil {
			return nil, fmt.Errorf("init dev auth provider: %w", err)
		}
		return dp, nil
	}
	p, err := oidc.NewProvider(ctx, oidc.ProviderConfig{
		ClientID:     cfg.OAuth.ClientID,
		ClientSecret: cfg.OAuth.ClientSecret,
		RedirectURL:  cfg.OAuth.RedirectURL,
		Scope:        cfg.OAuth.Scope,
		DiscoveryURL: cfg.OAuth.DiscoveryURL,
	})
	if err != nil {
		return nil, fmt.Errorf("init oidc provider: %w", err)
	}
	logger.InfoContext(ctx, "single sign-on enabled", "discovery_url", cfg.OAuth.DiscoveryURL)
	return p, nil
}

// NewMetrics builds the StatsD client.
func NewMetrics(cfg config.ObservabilityMetricsConfig, logger *slog.Logger) (*statsd.Client, error) {
	return statsd.NewClient(statsd.Config{
		Enabled: cfg.IsEnabled(),
		Address: cfg.StatsdAddress,
		Prefix:  cfg.Prefix,
		Logger:  logger,
	})
}
