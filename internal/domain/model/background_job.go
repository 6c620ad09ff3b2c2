package model

import (
	"encoding/json"
	"errors"
	"regexp"
	"time"
)

var topicPattern = regexp.MustCompile(`^[a-z][a-z0-9_.-]{0,63}$`)

// JobTopicOTPDeliver carries a one-time code to the delivery worker.
const JobTopicOTPDeliver = "otp.deliver"

// Job is a unit of background work pushed to the queue. CorrelationID ties it
// to the request that enqueued it.
type Job struct {
	ID            string          `json:"id"`
	Topic         string          `json:"topic"`
	CorrelationID string          `json:"correlationId,omitempty"`
	Payload       json.RawMessage `json:"payload"`
	EnqueuedAt    time.Time       `json:"enqueuedAt"`
}

// ValidateTopic checks a queue topic name.
func ValidateTopic(topic string) error {
	if !topicPattern.MatchString(topic) {
		return errors.New("invalid job topic")
	}
	return nil
}

// OTPDelivery is the payload of an otp.deliver job.
type OTPDelivery struct {
	AccountID string `json:"accountId"`
	Channel   string `json:"channel"`
	Address   string `json:"address"`
	Code      string `json:"code"`
}
