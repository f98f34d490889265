package notifiers

import (
	"context"
	"fmt"
	"github.com/google/uuid"
	"github.com/ilindan-dev/notification-gateway/internal/config"
	"github.com/ilindan-dev/notification-gateway/internal/domain/provider"
	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

// Ensure SMTPSender implements the interface
var _ provider.EmailSender = (*SMTPSender)(nil)

// mailDialer is the part of gomail.Dialer used by SMTPSender.
type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender sends email via SMTP. It is the alternative to SES for
// deployments with a plain mail relay.
type SMTPSender struct {
	dialer mailDialer
	logger zerolog.Logger
}

// NewSMTPSender creates a new instance of SMTPSender.
func NewSMTPSender(cfg config.SMTPConfig, logger *zerolog.Logger) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		logger: logger.With().Str("component", "smtp_sender").Logger(),
	}
}

// SendEmail implements the EmailSender interface for SMTP.
// SMTP relays do not hand back a message id, so one is generated and set as Message-ID.
func (s *SMTPSender) SendEmail(_ context.Context, msg provider.EmailMessage) (string, error) {
	messageID := uuid.NewString()

	text := msg.TextBody
	if text == "" {
		text = msg.HTMLBody
	}

	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetHeader("Message-ID", fmt.Sprintf("<%s@notification-gateway>", messageID))
	m.SetBody("text/plain", text)
	m.AddAlternative("text/html", msg.HTMLBody)

	// DialAndSend opens a connection, sends the email, and closes it.
	if err := s.dialer.DialAndSend(m); err != nil {
		s.logger.Error().Err(err).Str("recipient", msg.To).Msg("failed to send email")
		return "", fmt.Errorf("smtp: send email: %w", err)
	}

	s.logger.Info().Str("recipient", msg.To).Str("message_id", messageID).Msg("email sent successfully")
	return messageID, nil
}
