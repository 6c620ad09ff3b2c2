package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/indevian-dev/stuwin-api/internal/domain/model"
	apperrors "github.com/indevian-dev/stuwin-api/internal/errors"
)

// queueDelivery handles a job delivered back by the queue relay. The topic
// in the path must match the job it carries.
func queueDelivery(rc *RequestContext, r *http.Request) (Result, error) {
	var job model.Job
	if err := json.Unmarshal(rc.RawBody, &job); err != nil {
		return Result{}, apperrors.Validation("invalid job body")
	}
	topic := rc.Param("topic")
	if job.Topic == "" {
		job.Topic = topic
	}
	if job.Topic != topic {
		return Result{}, apperrors.ValidationField("topic", "topic does not match the delivered job")
	}
	if err := rc.Modules.Jobs.Dispatch(r.Context(), job); err != nil {
		return Result{}, err
	}
	return Message("processed"), nil
}

// paymentCallback records a payment provider event once.
func paymentCallback(rc *RequestContext, r *http.Request) (Result, error) {
	res, err := rc.Modules.Payments.RecordEvent(r.Context(), rc.RawBody)
	if err != nil {
		return Result{}, err
	}
	if res.Duplicate {
		return Message("already processed"), nil
	}
	return Result{Status: http.StatusOK, Data: res.Event, Message: "recorded"}, nil
}

// internalEnqueue lets trusted internal callers publish a job.
func internalEnqueue(rc *RequestContext, r *http.Request) (Result, error) {
	var payload any
	if len(rc.RawBody) > 0 {
		payload = json.RawMessage(rc.RawBody)
	}
	job, err := rc.Modules.Jobs.Enqueue(r.Context(), rc.Param("topic"), payload)
	if err != nil {
		return Result{}, err
	}
	return Created(job), nil
}
