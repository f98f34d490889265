package notifiers

import (
	"context"
	"fmt"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/aws/aws-sdk-go/service/ses/sesiface"
	"github.com/ilindan-dev/notification-gateway/internal/domain/provider"
	"github.com/rs/zerolog"
)

// Ensure SESSender implements the interface
var _ provider.EmailSender = (*SESSender)(nil)

const charsetUTF8 = "UTF-8"

// SESSender sends email through AWS SES.
type SESSender struct {
	client sesiface.SESAPI
	logger zerolog.Logger
}

// NewSESSender creates a new instance of SESSender.
func NewSESSender(client sesiface.SESAPI, logger *zerolog.Logger) *SESSender {
	return &SESSender{
		client: client,
		logger: logger.With().Str("component", "ses_sender").Logger(),
	}
}

// SendEmail implements the EmailSender interface for SES.
func (s *SESSender) SendEmail(ctx context.Context, msg provider.EmailMessage) (string, error) {
	text := msg.TextBody
	if text == "" {
		text = msg.HTMLBody
	}

	input := &ses.SendEmailInput{
		Source: aws.String(msg.From),
		Destination: &ses.Destination{
			ToAddresses: []*string{aws.String(msg.To)},
		},
		Message: &ses.Message{
			Subject: &ses.Content{Charset: aws.String(charsetUTF8), Data: aws.String(msg.Subject)},
			Body: &ses.Body{
				Html: &ses.Content{Charset: aws.String(charsetUTF8), Data: aws.String(msg.HTMLBody)},
				Text: &ses.Content{Charset: aws.String(charsetUTF8), Data: aws.String(text)},
			},
		},
	}

	out, err := s.client.SendEmailWithContext(ctx, input)
	if err != nil {
		s.logger.Error().Err(err).Str("recipient", msg.To).Msg("failed to send email")
		return "", fmt.Errorf("ses: send email: %w", err)
	}

	messageID := aws.StringValue(out.MessageId)
	s.logger.Info().Str("recipient", msg.To).Str("message_id", messageID).Msg("email sent successfully")
	return messageID, nil
}
