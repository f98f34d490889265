package notifiers

import (
	"context"
	"github.com/google/uuid"
	"github.com/ilindan-dev/notification-gateway/internal/domain/provider"
	"github.com/rs/zerolog"
)

var (
	_ provider.EmailSender    = (*LogNotifier)(nil)
	_ provider.TopicPublisher = (*LogNotifier)(nil)
)

// LogNotifier is a stand-in provider that implements both EmailSender and TopicPublisher.
// It simply logs the message instead of calling a cloud provider, which is
// useful for local development without AWS credentials.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a new instance of LogNotifier.
func NewLogNotifier(logger *zerolog.Logger) *LogNotifier {
	return &LogNotifier{
		logger: logger.With().Str("component", "log_notifier").Logger(),
	}
}

// SendEmail implements the EmailSender interface.
func (n *LogNotifier) SendEmail(_ context.Context, msg provider.EmailMessage) (string, error) {
	id := uuid.NewString()
	n.logger.Info().
		Str("message_id", id).
		Str("from", msg.From).
		Str("recipient", msg.To).
		Str("subject", msg.Subject).
		Int("html_bytes", len(msg.HTMLBody)).
		Msg(">>> MOCK SEND: email dispatched")
	return id, nil
}

// Publish implements the TopicPublisher interface.
func (n *LogNotifier) Publish(_ context.Context, msg provider.TopicMessage) (string, error) {
	id := uuid.NewString()
	n.logger.Info().
		Str("message_id", id).
		Str("phone_number", msg.PhoneNumber).
		Str("subject", msg.Subject).
		Str("message", msg.Message).
		Msg(">>> MOCK SEND: topic message published")
	return id, nil
}
