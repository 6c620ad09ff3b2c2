package metrics

import (
	"strconv"
	"time"

	"github.com/indevian-dev/stuwin-api/internal/observability/statsd"
)

// RequestMetric describes one request that reached the gateway.
type RequestMetric struct {
	Endpoint string // "" for unmatched paths
	Method   string
	Status   int
	Duration time.Duration
}

// EmitRequest emits gateway.request and gateway.duration.
func EmitRequest(sink statsd.Sink, in RequestMetric) {
	if sink == nil {
		return
	}
	endpoint := in.Endpoint
	if endpoint == "" {
		endpoint = "unmatched"
	}
	tags := map[string]string{
		"endpoint":     endpoint,
		"method":       in.Method,
		"status":       strconv.Itoa(in.Status),
		"status_class": strconv.Itoa(in.Status/100) + "xx",
	}
	sink.Count("gateway.request", 1, tags)
	sink.Timing("gateway.duration", in.Duration, CloneTags(tags))
}

// EmitDenied counts a gate rejection by deny code.
func EmitDenied(sink statsd.Sink, endpoint, code string) {
	if sink == nil {
		return
	}
	sink.Count("gateway.denied", 1, map[string]string{"endpoint": endpoint, "code": code})
}

// EmitRateLimited counts a rate-limit rejection.
func EmitRateLimited(sink statsd.Sink, endpoint string) {
	if sink == nil {
		return
	}
	sink.Count("gateway.rate_limited", 1, map[string]string{"endpoint": endpoint})
}

// EmitWebhookVerify counts a signature check outcome.
func EmitWebhookVerify(sink statsd.Sink, scheme string, err error) {
	if sink == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	sink.Count("webhook.verify", 1, map[string]string{"scheme": scheme, "result": result})
}
