package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/ilindan-dev/notification-gateway/internal/config"
	"github.com/ilindan-dev/notification-gateway/internal/domain/model"
	"github.com/ilindan-dev/notification-gateway/internal/domain/provider"
	"github.com/rs/zerolog"
	"sync"
	"time"
)

const (
	// defaultWorkerCount is the default number of worker goroutines in the pool.
	defaultWorkerCount = 5
	// receiveErrorBackoff is the pause after a failed receive before polling again.
	receiveErrorBackoff = 2 * time.Second
	// defaultRedeliveryDelay applies when worker.redelivery_delay is unset.
	defaultRedeliveryDelay = 30 * time.Second
)

// errUndecodable marks queue bodies that can never be dispatched.
var errUndecodable = errors.New("undecodable queue message")

// Dispatcher sends one notification on the given channel.
type Dispatcher interface {
	Send(ctx context.Context, channel model.Channel, req model.NotificationRequest) (*model.NotificationResponse, error)
}

// Consumer polls the notification queue and processes messages using a pool of workers.
type Consumer struct {
	queue           provider.MessageQueue
	dispatcher      Dispatcher
	logger          zerolog.Logger
	workerCount     int
	batchSize       int
	waitTime        time.Duration
	redeliveryDelay time.Duration
}

// New creates a new instance of Consumer.
func New(
	cfg *config.Config,
	logger *zerolog.Logger,
	queue provider.MessageQueue,
	dispatcher Dispatcher,
) *Consumer {
	workerCount := cfg.Worker.Count
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}
	redeliveryDelay := cfg.Worker.RedeliveryDelay
	if redeliveryDelay <= 0 {
		redeliveryDelay = defaultRedeliveryDelay
	}
	return &Consumer{
		queue:           queue,
		dispatcher:      dispatcher,
		logger:          logger.With().Str("component", "consumer").Logger(),
		workerCount:     workerCount,
		batchSize:       cfg.Worker.BatchSize,
		waitTime:        cfg.Worker.WaitTime,
		redeliveryDelay: redeliveryDelay,
	}
}

// Start launches the worker pool to process messages from the queue.
// This is a blocking method that will run until the context is cancelled.
func (c *Consumer) Start(ctx context.Context) {
	c.logger.Info().Int("count", c.workerCount).Msg("Starting worker pool")
	var wg sync.WaitGroup

	for i := 0; i < c.workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			c.runWorker(ctx, workerID)
		}(i + 1)
	}

	wg.Wait()
	c.logger.Info().Msg("Consumer stopped")
}

// runWorker contains the main loop of a single worker goroutine.
func (c *Consumer) runWorker(ctx context.Context, workerID int) {
	logger := c.logger.With().Int("worker_id", workerID).Logger()
	logger.Info().Msg("Worker is waiting for messages")

	for {
		if ctx.Err() != nil {
			logger.Info().Msg("Worker stopping due to context cancellation")
			return
		}

		msgs, err := c.queue.Receive(ctx, c.batchSize, c.waitTime)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			logger.Error().Err(err).Dur("backoff", receiveErrorBackoff).Msg("Failed to receive messages")
			select {
			case <-ctx.Done():
			case <-time.After(receiveErrorBackoff):
			}
			continue
		}

		for _, msg := range msgs {
			c.handleMessage(ctx, msg, logger)
		}
	}
}

// handleMessage processes a single message from the queue.
// Successful and undecodable messages are deleted; failed sends are released
// back to the queue and come again after the redelivery delay.
func (c *Consumer) handleMessage(ctx context.Context, msg provider.ReceivedMessage, logger zerolog.Logger) {
	log := logger.With().Str("message_id", msg.ID).Logger()

	queued, err := decode(msg.Body)
	if err != nil {
		log.Error().Err(err).Msg("Dropping message that cannot be decoded")
		c.delete(ctx, msg, log)
		return
	}

	log = log.With().
		Stringer("notification_id", queued.ID).
		Str("channel", string(queued.Channel)).
		Logger()

	log.Info().Msg("Processing notification")
	if _, err := c.dispatcher.Send(ctx, queued.Channel, queued.NotificationRequest()); err != nil {
		log.Warn().Err(err).Dur("redelivery_delay", c.redeliveryDelay).Msg("Send failed, releasing message for redelivery")
		if err := c.queue.Release(ctx, msg.ReceiptHandle, c.redeliveryDelay); err != nil {
			log.Error().Err(err).Msg("Failed to release message, it will be redelivered by the backend")
		}
		return
	}

	log.Info().Msg("Notification sent successfully")
	c.delete(ctx, msg, log)
}

func (c *Consumer) delete(ctx context.Context, msg provider.ReceivedMessage, log zerolog.Logger) {
	if err := c.queue.Delete(ctx, msg.ReceiptHandle); err != nil {
		log.Error().Err(err).Msg("Failed to delete message, it will be redelivered")
	}
}

func decode(body string) (*model.QueuedNotification, error) {
	var queued model.QueuedNotification
	if err := json.Unmarshal([]byte(body), &queued); err != nil {
		return nil, fmt.Errorf("%w: %w", errUndecodable, err)
	}
	switch queued.Channel {
	case model.ChannelEmail, model.ChannelSMS:
	default:
		return nil, fmt.Errorf("%w: unknown channel %q", errUndecodable, queued.Channel)
	}
	if queued.Request.Recipient == "" {
		return nil, fmt.Errorf("%w: missing recipient", errUndecodable)
	}
	return &queued, nil
}
