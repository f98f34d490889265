package notifiers

import (
	"context"
	"fmt"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/sns/snsiface"
	"github.com/ilindan-dev/notification-gateway/internal/domain/provider"
	"github.com/rs/zerolog"
)

// Ensure SNSPublisher implements the interface
var _ provider.TopicPublisher = (*SNSPublisher)(nil)

// SNSPublisher publishes messages to an SNS topic, or directly to a phone number.
type SNSPublisher struct {
	client   snsiface.SNSAPI
	topicARN string
	logger   zerolog.Logger
}

// NewSNSPublisher creates a new instance of SNSPublisher for topicARN.
func NewSNSPublisher(client snsiface.SNSAPI, topicARN string, logger *zerolog.Logger) *SNSPublisher {
	return &SNSPublisher{
		client:   client,
		topicARN: topicARN,
		logger:   logger.With().Str("component", "sns_publisher").Logger(),
	}
}

// Publish implements the TopicPublisher interface.
// A phone number and the topic are mutually exclusive targets; the phone number wins.
func (p *SNSPublisher) Publish(ctx context.Context, msg provider.TopicMessage) (string, error) {
	input := &sns.PublishInput{
		Message: aws.String(msg.Message),
	}

	target := p.topicARN
	if msg.PhoneNumber != "" {
		input.PhoneNumber = aws.String(msg.PhoneNumber)
		target = msg.PhoneNumber
	} else {
		if p.topicARN == "" {
			return "", fmt.Errorf("sns: publish: topic arn is empty: %w", provider.ErrNotConfigured)
		}
		input.TopicArn = aws.String(p.topicARN)
	}

	if msg.Subject != "" {
		input.Subject = aws.String(msg.Subject)
	}

	out, err := p.client.PublishWithContext(ctx, input)
	if err != nil {
		p.logger.Error().Err(err).Str("target", target).Msg("failed to publish message")
		return "", fmt.Errorf("sns: publish: %w", err)
	}

	messageID := aws.StringValue(out.MessageId)
	p.logger.Info().Str("target", target).Str("message_id", messageID).Msg("message published")
	return messageID, nil
}
