package app

import (
	"context"
	"github.com/aws/aws-sdk-go/aws/session"
	awssqs "github.com/aws/aws-sdk-go/service/sqs"
	"github.com/ilindan-dev/notification-gateway/internal/awsclient"
	"github.com/ilindan-dev/notification-gateway/internal/config"
	"github.com/ilindan-dev/notification-gateway/internal/consumer"
	deliveryHTTP "github.com/ilindan-dev/notification-gateway/internal/delivery/http"
	"github.com/ilindan-dev/notification-gateway/internal/domain/provider"
	"github.com/ilindan-dev/notification-gateway/internal/logger"
	"github.com/ilindan-dev/notification-gateway/internal/metrics"
	"github.com/ilindan-dev/notification-gateway/internal/notifiers"
	"github.com/ilindan-dev/notification-gateway/internal/service"
	"github.com/ilindan-dev/notification-gateway/internal/storage/rabbitmq"
	"github.com/ilindan-dev/notification-gateway/internal/storage/redis"
	"github.com/ilindan-dev/notification-gateway/internal/storage/sqs"
	"github.com/ilindan-dev/notification-gateway/internal/templates"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"net/http"
	"os"
)

// CommonModule provides dependencies that are shared between the API and Worker applications.
var CommonModule = fx.Options(
	fx.Provide(
		// Core components
		config.NewConfig,
		logger.NewLogger,
		metrics.New,

		// Providers
		awsclient.NewSession,
		notifiers.NewEmailSender,
		notifiers.NewTopicPublisher,
		NewMessageQueue,

		// Templates
		NewTemplateSource,
		templates.NewRenderer,
		func(r *templates.Renderer) service.Renderer { return r },

		// Service Layer
		service.OptionsFromConfig,
		service.NewNotificationService,
	),
)

// APIModule defines the Fx module for the HTTP API application.
var APIModule = fx.Options(
	CommonModule, // Include all shared components
	fx.Provide(
		// API-specific components
		deliveryHTTP.NewHandlers,
		deliveryHTTP.NewServer,
	),

	fx.Invoke(func(server *deliveryHTTP.Server, lc fx.Lifecycle, logger *zerolog.Logger) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				logger.Info().Str("addr", server.Addr).Msg("starting http server")
				go func() {
					if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						logger.Fatal().Err(err).Msg("http server failed")
					}
				}()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				return server.Shutdown(ctx)
			},
		})
	}),
)

// WorkerModule defines the Fx module for the background worker application.
var WorkerModule = fx.Options(
	CommonModule, // Include all shared components
	fx.Provide(
		// Worker-specific components
		func(s *service.NotificationService) consumer.Dispatcher { return s },
		consumer.New,
	),
	fx.Invoke(func(c *consumer.Consumer, lc fx.Lifecycle) {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				go func() {
					defer close(done)
					c.Start(ctx)
				}()
				return nil
			},
			OnStop: func(stopCtx context.Context) error {
				cancel()
				select {
				case <-done:
					return nil
				case <-stopCtx.Done():
					return stopCtx.Err()
				}
			},
		})
	}),
)

// NewTemplateSource selects the template store named by templates.source.
func NewTemplateSource(cfg *config.Config, lc fx.Lifecycle, logger *zerolog.Logger) (templates.Source, error) {
	if cfg.Templates.Source != "redis" {
		return templates.NewFSSource(os.DirFS(cfg.Templates.Dir)), nil
	}

	client, err := redis.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return client.Close() },
	})
	return templates.NewRedisSource(client, logger), nil
}

// NewMessageQueue selects the queue backend named by queue.backend.
func NewMessageQueue(cfg *config.Config, sess *session.Session, lc fx.Lifecycle, logger *zerolog.Logger) (provider.MessageQueue, error) {
	if cfg.Queue.Backend != "rabbitmq" {
		return sqs.NewQueue(awssqs.New(sess), cfg.SQS.QueueURL, logger), nil
	}

	conn, err := rabbitmq.NewConnection(cfg)
	if err != nil {
		return nil, err
	}
	queue, err := rabbitmq.NewQueue(conn, cfg.RabbitMQ.Queue, logger)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			_ = queue.Close()
			return conn.Close()
		},
	})
	return queue, nil
}
