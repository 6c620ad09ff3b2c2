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

	"github.com/indevian-dev/stuwin-api/internal/domain/model"
	apperrors "github.com/indevian-dev/stuwin-api/internal/errors"
	"github.com/indevian-dev/stuwin-api/internal/observability/correlation"
	"github.com/indevian-dev/stuwin-api/internal/observability/metrics"
	"github.com/indevian-dev/stuwin-api/internal/observability/statsd"
	"github.com/indevian-dev/stuwin-api/internal/ports"
)

// JobProcessor runs one delivered job.
type JobProcessor interface {
	Process(ctx context.Context, job model.Job) error
}

// JobProcessorFunc adapts a function to JobProcessor.
type JobProcessorFunc func(ctx context.Context, job model.Job) error

func (f JobProcessorFunc) Process(ctx context.Context, job model.Job) error { return f(ctx, job) }

// JobServiceConfig tunes JobService.
type JobServiceConfig struct {
	// Inline dispatches every job in-process right after it is queued. Dev
	// uses it when no queue relay calls back.
	Inline bool
	Now    func() time.Time
}

// JobServiceOptions groups dependencies for JobService.
type JobServiceOptions struct {
	Queue   ports.JobQueue
	Logger  *slog.Logger
	Metrics statsd.Sink
	Config  JobServiceConfig
}

// JobService publishes background jobs and dispatches delivered ones to
// registered processors.
type JobService struct {
	queue   ports.JobQueue
	logger  *slog.Logger
	metrics statsd.Sink
	inline  bool
	now     func() time.Time

	mu         sync.RWMutex
	processors map[string]JobProcessor
}

// NewJobService constructs a JobService.
func NewJobService(opts JobServiceOptions) *JobService {
	if opts.Queue == nil {
		panic("JobQueue is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Config.Now
	if now == nil {
		now = time.Now
	}
	return &JobService{
		queue:      opts.Queue,
		logger:     logger.With("component", "jobs"),
		metrics:    opts.Metrics,
		inline:     opts.Config.Inline,
		now:        now,
		processors: make(map[string]JobProcessor),
	}
}

// Register binds a processor to a topic, replacing any previous one.
func (s *JobService) Register(topic string, p JobProcessor) {
	if err := model.ValidateTopic(topic); err != nil {
		panic(fmt.Sprintf("register job processor %q: %v", topic, err))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processors[topic] = p
}

// Topics lists the topics with a registered processor.
func (s *JobService) Topics() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.processors))
	for t := range s.processors {
		out = append(out, t)
	}
	return out
}

// Enqueue publishes payload under topic. The job carries the correlation id
// from ctx. Publishing is detached from ctx cancellation so a client
// disconnect does not drop the job.
func (s *JobService) Enqueue(ctx context.Context, topic string, payload any) (*model.Job, error) {
	if err := model.ValidateTopic(topic); err != nil {
		return nil, apperrors.ValidationField("topic", err.Error())
	}
	raw, err := marshalPayload(payload)
	if err != nil {
		return nil, apperrors.Validationf("invalid job payload: %v", err)
	}

	job := model.Job{
		ID:            uuid.NewString(),
		Topic:         topic,
		CorrelationID: correlation.FromContext(ctx),
		Payload:       raw,
		EnqueuedAt:    s.now().UTC(),
	}

	detached := context.WithoutCancel(ctx)
	err = s.queue.Enqueue(detached, job)
	metrics.EmitJob(s.metrics, metrics.JobMetric{Topic: topic, Stage: "enqueue", Err: err})
	if err != nil {
		return nil, fmt.Errorf("enqueue job: %w", err)
	}
	s.logger.InfoContext(ctx, "job enqueued",
		"job_id", job.ID, "topic", topic, "correlation_id", job.CorrelationID)

	if s.inline {
		if err := s.Dispatch(detached, job); err != nil {
			s.logger.ErrorContext(ctx, "inline job dispatch failed", "job_id", job.ID, "topic", topic, "error", err)
		}
	}
	return &job, nil
}

// Dispatch runs the processor registered for job.Topic.
func (s *JobService) Dispatch(ctx context.Context, job model.Job) error {
	s.mu.RLock()
	p, ok := s.processors[job.Topic]
	s.mu.RUnlock()
	if !ok {
		return apperrors.NotFoundf("no processor for topic %q", job.Topic)
	}

	if job.CorrelationID != "" && correlation.FromContext(ctx) == "" {
		ctx = correlation.WithID(ctx, job.CorrelationID)
	}
	start := s.now()
	err := p.Process(ctx, job)
	metrics.EmitJob(s.metrics, metrics.JobMetric{Topic: job.Topic, Stage: "dispatch", Duration: s.now().Sub(start), Err: err})
	if err != nil {
		s.logger.ErrorContext(ctx, "job failed",
			"job_id", job.ID, "topic", job.Topic, "correlation_id", job.CorrelationID, "error", err)
		return fmt.Errorf("process %s job: %w", job.Topic, err)
	}
	s.logger.InfoContext(ctx, "job processed",
		"job_id", job.ID, "topic", job.Topic, "duration_ms", s.now().Sub(start).Milliseconds())
	return nil
}

var errPayloadNotJSON = errors.New("payload is not valid JSON")

func marshalPayload(payload any) (json.RawMessage, error) {
	switch p := payload.(type) {
	case nil:
		return json.RawMessage(`{}`), nil
	case json.RawMessage:
		if !json.Valid(p) {
			return nil, errPayloadNotJSON
		}
		return p, nil
	case []byte:
		if !json.Valid(p) {
			return nil, errPayloadNotJSON
		}
		return json.RawMessage(p), nil
	default:
		return json.Marshal(p)
	}
}

// OTPDeliveryProcessor hands otp.deliver jobs to an OTPDeliverer.
func OTPDeliveryProcessor(d ports.OTPDeliverer) JobProcessor {
	return JobProcessorFunc(func(ctx context.Context, job model.Job) error {
		var in model.OTPDelivery
		if err := json.Unmarshal(job.Payload, &in); err != nil {
			return apperrors.Validationf("decode otp delivery: %v", err)
		}
		if in.Address == "" || in.Code == "" {
			return apperrors.Validation("otp delivery needs an address and a code")
		}
		return d.Deliver(ctx, in)
	})
}
