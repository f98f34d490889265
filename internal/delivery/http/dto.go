package http

import (
	"github.com/google/uuid"
	"github.com/ilindan-dev/notification-gateway/internal/domain/model"
	"time"
)

// NotificationRequest defines the body accepted by every notification endpoint.
// It uses `json` tags for unmarshalling and `binding` for validation with Gin.
type NotificationRequest struct {
	Recipient string         `json:"recipient" binding:"required"`
	Subject   string         `json:"subject"`
	Template  *string        `json:"template,omitempty"`
	Context   map[string]any `json:"context" binding:"required"`
}

func (r NotificationRequest) toModel() model.NotificationRequest {
	return model.NotificationRequest{
		Recipient: r.Recipient,
		Subject:   r.Subject,
		Template:  r.Template,
		Context:   r.Context,
	}
}

// NotificationResponse defines the structure returned for an accepted notification.
type NotificationResponse struct {
	ID        uuid.UUID `json:"id"`
	Status    string    `json:"status"`
	Recipient string    `json:"recipient"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthResponse is the body of the health and readiness probes.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// FieldError describes one rejected request field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ErrorResponse defines a standard structure for API error responses.
type ErrorResponse struct {
	Detail string       `json:"detail"`
	Fields []FieldError `json:"fields,omitempty"`
}

// toNotificationResponse is a helper function to map the domain model to the DTO.
func toNotificationResponse(n *model.NotificationResponse) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Status:    string(n.Status),
		Recipient: n.Recipient,
		Timestamp: n.Timestamp,
	}
}

func toHealthResponse(h model.HealthCheck) HealthResponse {
	return HealthResponse{
		Status:    h.Status,
		Timestamp: h.Timestamp,
		Version:   h.Version,
	}
}
