package bootstrap

import (
	"context"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/indevian-dev/stuwin-api/config"
	"github.com/indevian-dev/stuwin-api/internal/adapters/memory"
	redisadapter "github.com/indevian-dev/stuwin-api/internal/adapters/redis"
	"github.com/indevian-dev/stuwin-api/internal/ports"
)

// Stores is the shared request state: sessions, counters, OTP challenges
// and the job queue.
type Stores struct {
	Sessions ports.SessionStore
	Cache    ports.Cache
	Counter  ports.RateCounter
	Queue    ports.JobQueue
	// InlineJobs is set when no relay delivers queued jobs back.
	InlineJobs bool
}

// NewStores picks the backend. Memory is only reachable in dev because
// Sanitize forces redis otherwise.
func NewStores(ctx context.Context, cfg *config.AppConfig, client redis.UniversalClient, logger *slog.Logger) (Stores, error) {
	if cfg.StoreBackend == config.StoreMemory {
		logger.WarnContext(ctx, "using in-memory stores; state is lost on restart and not shared between instances")
		return Stores{
			Sessions:   memory.NewSessionStore(),
			Cache:      memory.NewCache(),
			Counter:    memory.NewRateCounter(),
			Queue:      memory.NewJobQueue(),
			InlineJobs: true,
		}, nil
	}
	if client == nil {
		return Stores{}, errors.New("redis store backend requires a redis client")
	}
	return Stores{
		Sessions:   redisadapter.NewSessionStore(client),
		Cache:      redisadapter.NewCache(client, "cache:"),
		Counter:    redisadapter.NewRateCounter(client),
		Queue:      redisadapter.NewJobQueue(client),
		InlineJobs: cfg.IsDev,
	}, nil
}
