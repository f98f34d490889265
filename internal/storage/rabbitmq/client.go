package rabbitmq

import (
	"fmt"
	"github.com/ilindan-dev/notification-gateway/internal/config"
	amqp "github.com/rabbitmq/amqp091-go"
)

// NewConnection creates and returns a raw amqp.Connection.
// The connection is shared by the API (publisher) and the worker (consumer).
func NewConnection(cfg *config.Config) (*amqp.Connection, error) {
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: failed to connect: %w", err)
	}
	return conn, nil
}
