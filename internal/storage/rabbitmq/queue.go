package rabbitmq

import (
	"context"
	"fmt"
	"github.com/google/uuid"
	"github.com/ilindan-dev/notification-gateway/internal/domain/provider"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"strconv"
	"sync"
	"time"
)

// Ensure Queue implements the provider interface at compile time.
var _ provider.MessageQueue = (*Queue)(nil)

const (
	// waitSuffix names the delay queue that dead-letters into the work queue.
	waitSuffix = ".wait"
	// pollInterval is how often Receive re-checks an empty queue while long-polling.
	pollInterval = 250 * time.Millisecond
)

// channel is the subset of *amqp.Channel used by Queue.
type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Get(queue string, autoAck bool) (amqp.Delivery, bool, error)
	Ack(tag uint64, multiple bool) error
	Close() error
}

// Queue implements provider.MessageQueue on RabbitMQ. Messages are pulled
// with basic.get and manual acknowledgement; the receipt handle is the
// delivery tag, so Delete and Release must be called on the same Queue that
// received it. Release republishes through the wait queue, so a failed
// message comes back after its delay rather than when the channel closes.
// Messages neither deleted nor released return when the channel closes.
type Queue struct {
	mu       sync.Mutex
	ch       channel
	name     string
	inflight map[uint64]amqp.Delivery
	logger   zerolog.Logger
}

// NewQueue opens a channel on conn and declares the topology for queue name.
func NewQueue(conn *amqp.Connection, name string, logger *zerolog.Logger) (*Queue, error) {
	ch, err := conn.Channel()
	if err != nil {
		logger.Error().Err(err).Msg("storage: rabbitMQ: New: Failed to open a channel")
		return nil, fmt.Errorf("storage: rabbitMQ: New: Failed to open a channel: %w", err)
	}
	return newQueue(ch, name, logger)
}

func newQueue(ch channel, name string, logger *zerolog.Logger) (*Queue, error) {
	q := &Queue{
		ch:       ch,
		name:     name,
		inflight: make(map[uint64]amqp.Delivery),
		logger:   logger.With().Str("component", "rabbitmq_queue").Str("queue", name).Logger(),
	}

	if err := q.setupTopology(); err != nil {
		q.logger.Error().Err(err).Msg("storage: rabbitMQ: New: Failed to setup topology")
		return nil, fmt.Errorf("storage: rabbitMQ: New: Failed to setup topology: %w", err)
	}
	return q, nil
}

// setupTopology declares the work queue and its delay queue. Delayed
// messages sit in the delay queue until their per-message TTL expires and
// are then dead-lettered through the default exchange into the work queue.
func (q *Queue) setupTopology() error {
	q.logger.Info().Msg("setting up rabbitmq topology")

	if _, err := q.ch.QueueDeclare(q.name, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", q.name, err)
	}

	waitArgs := amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": q.name,
	}
	if _, err := q.ch.QueueDeclare(q.name+waitSuffix, true, false, false, false, waitArgs); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", q.name+waitSuffix, err)
	}

	q.logger.Info().Msg("rabbitmq topology setup successful")
	return nil
}

// Enqueue publishes body, routing it through the delay queue when delay is positive.
func (q *Queue) Enqueue(ctx context.Context, body string, attrs map[string]string, delay time.Duration) (string, error) {
	id := uuid.NewString()

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         []byte(body),
		DeliveryMode: amqp.Persistent,
		MessageId:    id,
		Timestamp:    time.Now().UTC(),
	}
	if len(attrs) > 0 {
		msg.Headers = make(amqp.Table, len(attrs))
		for k, v := range attrs {
			msg.Headers[k] = v
		}
	}

	q.mu.Lock()
	err := q.publish(ctx, msg, delay)
	q.mu.Unlock()
	if err != nil {
		q.logger.Error().Err(err).Str("message_id", id).Msg("failed to publish message")
		return "", fmt.Errorf("rabbitmq: publish: %w", err)
	}
	return id, nil
}

// publish routes msg to the work queue, or through the wait queue when delay is positive.
// The caller holds q.mu.
func (q *Queue) publish(ctx context.Context, msg amqp.Publishing, delay time.Duration) error {
	routingKey := q.name
	if delay > 0 {
		routingKey = q.name + waitSuffix
		msg.Expiration = strconv.FormatInt(delay.Milliseconds(), 10)
	}
	return q.ch.PublishWithContext(ctx, "", routingKey, false, false, msg)
}

// Receive pulls up to maxMessages, polling until at least one arrives or wait elapses.
func (q *Queue) Receive(ctx context.Context, maxMessages int, wait time.Duration) ([]provider.ReceivedMessage, error) {
	if maxMessages < 1 {
		maxMessages = 1
	}
	deadline := time.Now().Add(wait)

	for {
		messages, err := q.drain(maxMessages)
		if err != nil || len(messages) > 0 || !time.Now().Before(deadline) {
			return messages, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

func (q *Queue) drain(maxMessages int) ([]provider.ReceivedMessage, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var messages []provider.ReceivedMessage
	for len(messages) < maxMessages {
		d, ok, err := q.ch.Get(q.name, false)
		if err != nil {
			return messages, fmt.Errorf("rabbitmq: get: %w", err)
		}
		if !ok {
			break
		}
		q.inflight[d.DeliveryTag] = d
		messages = append(messages, toReceivedMessage(d))
	}
	return messages, nil
}

// Delete acknowledges the delivery identified by receiptHandle.
func (q *Queue) Delete(_ context.Context, receiptHandle string) error {
	tag, err := parseTag(receiptHandle)
	if err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.ch.Ack(tag, false); err != nil {
		return fmt.Errorf("rabbitmq: ack %d: %w", tag, err)
	}
	delete(q.inflight, tag)
	return nil
}

// Release republishes the delivery through the wait queue with delay as its
// TTL and then acknowledges the original.
func (q *Queue) Release(ctx context.Context, receiptHandle string, delay time.Duration) error {
	tag, err := parseTag(receiptHandle)
	if err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	d, ok := q.inflight[tag]
	if !ok {
		return fmt.Errorf("rabbitmq: release: unknown delivery %d", tag)
	}

	msg := amqp.Publishing{
		ContentType:  d.ContentType,
		Body:         d.Body,
		DeliveryMode: amqp.Persistent,
		MessageId:    d.MessageId,
		Timestamp:    d.Timestamp,
		Headers:      d.Headers,
	}
	if err := q.publish(ctx, msg, delay); err != nil {
		q.logger.Error().Err(err).Str("message_id", d.MessageId).Msg("failed to republish released message")
		return fmt.Errorf("rabbitmq: release: publish: %w", err)
	}
	if err := q.ch.Ack(tag, false); err != nil {
		return fmt.Errorf("rabbitmq: release: ack %d: %w", tag, err)
	}
	delete(q.inflight, tag)
	return nil
}

// Close gracefully shuts down the channel. The connection is managed by Fx.
func (q *Queue) Close() error {
	if q.ch != nil {
		return q.ch.Close()
	}
	return nil
}

func parseTag(receiptHandle string) (uint64, error) {
	tag, err := strconv.ParseUint(receiptHandle, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("rabbitmq: invalid receipt handle %q: %w", receiptHandle, err)
	}
	return tag, nil
}

func toReceivedMessage(d amqp.Delivery) provider.ReceivedMessage {
	attrs := make(map[string]string, len(d.Headers))
	for k, v := range d.Headers {
		if s, ok := v.(string); ok {
			attrs[k] = s
		}
	}
	return provider.ReceivedMessage{
		ID:            d.MessageId,
		Body:          string(d.Body),
		ReceiptHandle: strconv.FormatUint(d.DeliveryTag, 10),
		Attributes:    attrs,
	}
}
