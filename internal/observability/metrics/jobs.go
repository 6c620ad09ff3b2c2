// Package metrics names and tags the metrics the gateway and job workers emit.
package metrics

import (
	"time"

	obserrors "github.com/indevian-dev/stuwin-api/internal/observability/errors"
	"github.com/indevian-dev/stuwin-api/internal/observability/statsd"
)

// Result tags.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// JobMetric describes one job enqueue or dispatch.
type JobMetric struct {
	Topic    string
	Stage    string // "enqueue" or "dispatch"
	Duration time.Duration
	Err      error
}

// EmitJob emits job.stage and, for dispatches, job.duration.
func EmitJob(sink statsd.Sink, in JobMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{"topic": in.Topic, "stage": in.Stage, "result": ResultSuccess}
	if in.Err != nil {
		tags["result"] = ResultError
		tags["error_class"] = obserrors.Classify(in.Err)
	}
	sink.Count("job.stage", 1, tags)
	if in.Duration > 0 {
		sink.Timing("job.duration", in.Duration, CloneTags(tags))
	}
}

// CloneTags copies a tag map, dropping empty keys.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		if k != "" {
			out[k] = v
		}
	}
	return out
}
