// Package sqs implements the message queue on top of AWS SQS.
package sqs

import (
	"context"
	"fmt"
	"github.com/aws/aws-sdk-go/aws"
	awssqs "github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
	"github.com/ilindan-dev/notification-gateway/internal/domain/provider"
	"github.com/rs/zerolog"
	"time"
)

// Ensure Queue implements the provider interface at compile time.
var _ provider.MessageQueue = (*Queue)(nil)

// SQS limits.
const (
	maxBatch       = 10
	maxWait        = 20 * time.Second
	maxDelay       = 15 * time.Minute
	maxVisibility  = 12 * time.Hour
	stringDataType = "String"
)

// Queue sends, receives and deletes messages on a single SQS queue.
type Queue struct {
	client   sqsiface.SQSAPI
	queueURL string
	logger   zerolog.Logger
}

// NewQueue creates a queue client bound to queueURL.
func NewQueue(client sqsiface.SQSAPI, queueURL string, logger *zerolog.Logger) *Queue {
	return &Queue{
		client:   client,
		queueURL: queueURL,
		logger:   logger.With().Str("component", "sqs_queue").Logger(),
	}
}

// Enqueue sends body with string attributes. delay is clamped to SQS's 0..15m range.
func (q *Queue) Enqueue(ctx context.Context, body string, attrs map[string]string, delay time.Duration) (string, error) {
	if q.queueURL == "" {
		return "", fmt.Errorf("sqs: enqueue: queue url is empty: %w", provider.ErrNotConfigured)
	}

	input := &awssqs.SendMessageInput{
		QueueUrl:     aws.String(q.queueURL),
		MessageBody:  aws.String(body),
		DelaySeconds: aws.Int64(int64(clamp(delay, 0, maxDelay) / time.Second)),
	}
	if len(attrs) > 0 {
		input.MessageAttributes = make(map[string]*awssqs.MessageAttributeValue, len(attrs))
		for k, v := range attrs {
			input.MessageAttributes[k] = &awssqs.MessageAttributeValue{
				DataType:    aws.String(stringDataType),
				StringValue: aws.String(v),
			}
		}
	}

	out, err := q.client.SendMessageWithContext(ctx, input)
	if err != nil {
		q.logger.Error().Err(err).Msg("failed to send message")
		return "", fmt.Errorf("sqs: send message: %w", err)
	}

	id := aws.StringValue(out.MessageId)
	q.logger.Debug().Str("message_id", id).Msg("message enqueued")
	return id, nil
}

// Receive long-polls for up to maxMessages (1..10) waiting at most wait (0..20s).
func (q *Queue) Receive(ctx context.Context, maxMessages int, wait time.Duration) ([]provider.ReceivedMessage, error) {
	if q.queueURL == "" {
		return nil, fmt.Errorf("sqs: receive: queue url is empty: %w", provider.ErrNotConfigured)
	}
	if maxMessages < 1 {
		maxMessages = 1
	}
	if maxMessages > maxBatch {
		maxMessages = maxBatch
	}

	out, err := q.client.ReceiveMessageWithContext(ctx, &awssqs.ReceiveMessageInput{
		QueueUrl:              aws.String(q.queueURL),
		MaxNumberOfMessages:   aws.Int64(int64(maxMessages)),
		WaitTimeSeconds:       aws.Int64(int64(clamp(wait, 0, maxWait) / time.Second)),
		MessageAttributeNames: []*string{aws.String("All")},
	})
	if err != nil {
		return nil, fmt.Errorf("sqs: receive message: %w", err)
	}

	messages := make([]provider.ReceivedMessage, 0, len(out.Messages))
	for _, m := range out.Messages {
		attrs := make(map[string]string, len(m.MessageAttributes))
		for k, v := range m.MessageAttributes {
			if v != nil && v.StringValue != nil {
				attrs[k] = *v.StringValue
			}
		}
		messages = append(messages, provider.ReceivedMessage{
			ID:            aws.StringValue(m.MessageId),
			Body:          aws.StringValue(m.Body),
			ReceiptHandle: aws.StringValue(m.ReceiptHandle),
			Attributes:    attrs,
		})
	}
	return messages, nil
}

// Delete removes a received message.
func (q *Queue) Delete(ctx context.Context, receiptHandle string) error {
	if q.queueURL == "" {
		return fmt.Errorf("sqs: delete: queue url is empty: %w", provider.ErrNotConfigured)
	}
	_, err := q.client.DeleteMessageWithContext(ctx, &awssqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.queueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		return fmt.Errorf("sqs: delete message: %w", err)
	}
	return nil
}

// Release sets the message visibility timeout to delay (0..12h), so SQS
// redelivers it once delay has passed.
func (q *Queue) Release(ctx context.Context, receiptHandle string, delay time.Duration) error {
	if q.queueURL == "" {
		return fmt.Errorf("sqs: release: queue url is empty: %w", provider.ErrNotConfigured)
	}
	_, err := q.client.ChangeMessageVisibilityWithContext(ctx, &awssqs.ChangeMessageVisibilityInput{
		QueueUrl:          aws.String(q.queueURL),
		ReceiptHandle:     aws.String(receiptHandle),
		VisibilityTimeout: aws.Int64(int64(clamp(delay, 0, maxVisibility) / time.Second)),
	})
	if err != nil {
		return fmt.Errorf("sqs: change message visibility: %w", err)
	}
	return nil
}

func clamp(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}
