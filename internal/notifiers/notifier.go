// Package notifiers holds the email and topic provider clients.
package notifiers

import (
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/ilindan-dev/notification-gateway/internal/config"
	"github.com/ilindan-dev/notification-gateway/internal/domain/provider"
	"github.com/rs/zerolog"
)

// NewEmailSender picks the email provider based on the configured mode and provider.
// In "log_only" mode every email goes to the LogNotifier.
func NewEmailSender(cfg *config.Config, sess *session.Session, logger *zerolog.Logger) provider.EmailSender {
	log := logger.With().Str("component", "notifiers").Logger()

	if cfg.Notifiers.Mode == "log_only" {
		log.Info().Msg("email provider: log only")
		return NewLogNotifier(logger)
	}

	if cfg.Notifiers.Email.Provider == "smtp" {
		log.Info().Str("host", cfg.Notifiers.SMTP.Host).Msg("email provider: smtp")
		return NewSMTPSender(cfg.Notifiers.SMTP, logger)
	}

	log.Info().Str("region", cfg.AWS.Region).Msg("email provider: ses")
	return NewSESSender(ses.New(sess), logger)
}

// NewTopicPublisher returns the SNS publisher, or the LogNotifier in "log_only" mode.
func NewTopicPublisher(cfg *config.Config, sess *session.Session, logger *zerolog.Logger) provider.TopicPublisher {
	if cfg.Notifiers.Mode == "log_only" {
		logger.Info().Str("component", "notifiers").Msg("topic provider: log only")
		return NewLogNotifier(logger)
	}
	return NewSNSPublisher(sns.New(sess), cfg.SNS.TopicARN, logger)
}
