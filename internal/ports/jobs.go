package ports

import (
	"context"

	"github.com/indevian-dev/stuwin-api/internal/domain/model"
)

// JobQueue publishes background jobs for out-of-process workers.
type JobQueue interface {
	Enqueue(ctx context.Context, job model.Job) error
}
