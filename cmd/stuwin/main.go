package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/indevian-dev/stuwin-api/config"
	"github.com/indevian-dev/stuwin-api/internal/bootstrap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		slog.Default().ErrorContext(ctx, "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
	logger := bootstrap.InitLogger(&cfg)

	if err := run(ctx, &cfg, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		stop()
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) error {
	logStartupInfo(ctx, logger, cfg)

	db, redisClient, err := initInfrastructure(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close database failed", "error", cerr)
		}
	}()
	if redisClient != nil {
		defer func() {
			if cerr := redisClient.Close(); cerr != nil {
				logger.ErrorContext(ctx, "close redis failed", "error", cerr)
			}
		}()
	}

	if cfg.Postgres.RunMigrationsOnStart {
		if err = bootstrap.RunMigrations(ctx, db, logger); err != nil {
			return err
		}
	} else {
		logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
	}

	stores, err := bootstrap.NewStores(ctx, cfg, redisClient, logger)
	if err != nil {
		return err
	}
	metricsClient, err := bootstrap.NewMetrics(cfg.Observability.Metrics, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := metricsClient.Close(); cerr != nil {
			logger.WarnContext(ctx, "close statsd client failed", "error", cerr)
		}
	}()
	provider, err := bootstrap.NewAuthProvider(ctx, cfg.Auth, logger)
	if err != nil {
		return err
	}

	services, err := bootstrap.NewServices(bootstrap.ServiceDeps{
		Config:       cfg,
		Repositories: bootstrap.NewRepositories(db),
		Stores:       stores,
		Metrics:      metricsClient,
		Provider:     provider,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	handler, err := bootstrap.BuildHandler(&bootstrap.HTTPServerConfig{
		Config:   cfg,
		Services: services,
		Metrics:  metricsClient,
		DB:       db,
		Redis:    redisClient,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	return bootstrap.ServeUntilDone(ctx, bootstrap.NewHTTPServer(cfg.HTTP, handler), cfg.HTTP, logger)
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting stuwin api",
		"dev", cfg.IsDev,
		"store_backend", cfg.StoreBackend,
		"db_host", cfg.Postgres.Host,
		"db_port", cfg.Postgres.Port,
		"db_name", cfg.Postgres.Name,
		"sso_enabled", cfg.Auth.SSOEnabled,
		"metrics_enabled", cfg.Observability.Metrics.IsEnabled())
}

// initInfrastructure connects Postgres and, unless in-memory stores are in
// use, Redis.
//
//nolint:ireturn // returning redis.UniversalClient keeps sentinel/cluster support flexible.
func initInfrastructure(
	ctx context.Context,
	cfg *config.AppConfig,
	logger *slog.Logger,
) (*sql.DB, redis.UniversalClient, error) {
	dbCfg := bootstrap.DatabaseConfig{DBConfig: cfg.Postgres, RedisConfig: cfg.Redis, Logger: logger}

	db, err := bootstrap.ConnectDB(ctx, dbCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect db: %w", err)
	}
	if cfg.StoreBackend == config.StoreMemory {
		return db, nil, nil
	}

	redisClient, err := bootstrap.ConnectRedis(ctx, dbCfg)
	if err != nil {
		if cerr := db.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close database after redis connect failure", "error", cerr)
			return nil, nil, fmt.Errorf("connect redis: %w", errors.Join(err, fmt.Errorf("close database: %w", cerr)))
		}
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	return db, redisClient, nil
}
