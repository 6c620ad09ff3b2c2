package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/indevian-dev/stuwin-api/internal/domain/model"
	"github.com/indevian-dev/stuwin-api/internal/ports"
)

// JobQueue records enqueued jobs in memory. In dev there is no relay, so
// jobs stay here until drained by tests or inspected in logs.
type JobQueue struct {
	mu   sync.Mutex
	jobs []model.Job
}

var _ ports.JobQueue = (*JobQueue)(nil)

// NewJobQueue creates an empty queue.
func NewJobQueue() *JobQueue {
	return &JobQueue{}
}

func (q *JobQueue) Enqueue(ctx context.Context, job model.Job) error {
	if job.ID == "" {
		return errors.New("job ID cannot be empty")
	}
	if err := model.ValidateTopic(job.Topic); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

// Drain returns and clears all queued jobs.
func (q *JobQueue) Drain() []model.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.jobs
	q.jobs = nil
	return out
}
