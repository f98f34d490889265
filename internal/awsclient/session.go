// Package awsclient builds the AWS session shared by the SES, SNS and SQS clients.
package awsclient

import (
	"fmt"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/ilindan-dev/notification-gateway/internal/config"
	"github.com/rs/zerolog"
)

// NewSession creates an AWS session for the configured region.
// Static credentials are used only when both keys are set; otherwise the
// default provider chain (env, shared config, instance role) applies.
func NewSession(cfg *config.Config, logger *zerolog.Logger) (*session.Session, error) {
	log := logger.With().Str("component", "aws_session").Logger()

	awsConfig := aws.NewConfig().WithRegion(cfg.AWS.Region)

	if cfg.AWS.AccessKeyID != "" && cfg.AWS.SecretAccessKey != "" {
		awsConfig = awsConfig.WithCredentials(credentials.NewStaticCredentials(
			cfg.AWS.AccessKeyID,
			cfg.AWS.SecretAccessKey,
			"",
		))
	}

	// Support LocalStack for local development
	if cfg.AWS.Endpoint != "" {
		awsConfig = awsConfig.WithEndpoint(cfg.AWS.Endpoint)
		log.Info().Str("endpoint", cfg.AWS.Endpoint).Msg("using custom aws endpoint")
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	log.Info().Str("region", cfg.AWS.Region).Msg("aws session created")
	return sess, nil
}
