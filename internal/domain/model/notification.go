package model

import (
	"fmt"
	"github.com/google/uuid"
	"time"
)

// Channel represents the notification delivery channel.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Status represents the outcome reported back to the caller.
type Status string

const (
	StatusSent      Status = "sent"      // The provider accepted the message.
	StatusQueued    Status = "queued"    // The request was placed on the queue for the worker.
	StatusPublished Status = "published" // The message was fanned out through the shared topic.
	StatusFailed    Status = "failed"    // The provider call failed.
)

// Version is reported by the health endpoints.
const Version = "1.0.0"

// NotificationRequest is an inbound request to notify a recipient.
// Context carries template substitution values and the "message" fallback.
type NotificationRequest struct {
	Recipient string
	Subject   string
	Template  *string
	Context   map[string]any
}

// HasTemplate reports whether a non-empty template identifier was supplied.
func (r NotificationRequest) HasTemplate() bool {
	return r.Template != nil && *r.Template != ""
}

// Message returns context["message"] as a string, or "" when absent.
func (r NotificationRequest) Message() string {
	return ContextString(r.Context, "message")
}

// NotificationResponse describes the outcome of one accepted request.
// It is never persisted; every call gets a fresh ID.
type NotificationResponse struct {
	ID        uuid.UUID
	Status    Status
	Recipient string
	Timestamp time.Time
}

// NewNotificationResponse builds a response stamped with the current UTC time.
func NewNotificationResponse(status Status, recipient string) *NotificationResponse {
	return &NotificationResponse{
		ID:        uuid.New(),
		Status:    status,
		Recipient: recipient,
		Timestamp: time.Now().UTC(),
	}
}

// HealthCheck is the payload of the liveness and readiness probes.
type HealthCheck struct {
	Status    string
	Timestamp time.Time
	Version   string
}

// NewHealthCheck returns a probe payload with a fresh timestamp.
func NewHealthCheck(status string) HealthCheck {
	return HealthCheck{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Version:   Version,
	}
}

// QueuedNotification is the body placed on the queue for the worker.
type QueuedNotification struct {
	ID         uuid.UUID           `json:"id"`
	Channel    Channel             `json:"channel"`
	Request    QueuedRequestFields `json:"request"`
	EnqueuedAt time.Time           `json:"enqueued_at"`
}

// QueuedRequestFields mirrors NotificationRequest with JSON tags for the queue body.
type QueuedRequestFields struct {
	Recipient string         `json:"recipient"`
	Subject   string         `json:"subject"`
	Template  *string        `json:"template,omitempty"`
	Context   map[string]any `json:"context"`
}

// NewQueuedNotification wraps a request for the queue.
func NewQueuedNotification(channel Channel, req NotificationRequest) *QueuedNotification {
	return &QueuedNotification{
		ID:      uuid.New(),
		Channel: channel,
		Request: QueuedRequestFields{
			Recipient: req.Recipient,
			Subject:   req.Subject,
			Template:  req.Template,
			Context:   req.Context,
		},
		EnqueuedAt: time.Now().UTC(),
	}
}

// NotificationRequest converts the queued fields back into a domain request.
func (q *QueuedNotification) NotificationRequest() NotificationRequest {
	return NotificationRequest{
		Recipient: q.Request.Recipient,
		Subject:   q.Request.Subject,
		Template:  q.Request.Template,
		Context:   q.Request.Context,
	}
}

// ContextString returns ctx[key] rendered as a string. Missing or nil values yield "".
func ContextString(ctx map[string]any, key string) string {
	v, ok := ctx[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
