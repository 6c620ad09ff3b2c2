package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/indevian-dev/stuwin-api/internal/domain/model"
	"github.com/indevian-dev/stuwin-api/internal/ports"
)

// JobQueue pushes jobs onto per-topic Redis lists ("jobs:<topic>"). A relay
// outside this service pops them and delivers them back through the signed
// queue webhook.
type JobQueue struct {
	client redis.UniversalClient
	prefix string
}

var _ ports.JobQueue = (*JobQueue)(nil)

// NewJobQueue creates a Redis list-backed queue.
func NewJobQueue(client redis.UniversalClient) *JobQueue {
	return &JobQueue{client: client, prefix: "jobs:"}
}

// ListKey returns the list a topic's jobs are pushed to.
func (q *JobQueue) ListKey(topic string) string {
	return q.prefix + topic
}

func (q *JobQueue) Enqueue(ctx context.Context, job model.Job) error {
	if job.ID == "" {
		return errors.New("job ID cannot be empty")
	}
	if err := model.ValidateTopic(job.Topic); err != nil {
		return err
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.LPush(ctx, q.ListKey(job.Topic), data).Err(); err != nil {
		return fmt.Errorf("redis lpush: %w", err)
	}
	return nil
}
