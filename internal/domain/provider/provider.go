// Package provider declares the contracts of the outbound messaging clients.
package provider

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrProviderFailed wraps any failure reported by a provider client.
	ErrProviderFailed = errors.New("provider call failed")
	// ErrNotConfigured is returned when a client is used without its target (topic, queue) configured.
	ErrNotConfigured = errors.New("provider not configured")
)

// EmailMessage is a single email handed to an EmailSender.
type EmailMessage struct {
	From     string
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// TopicMessage is a message handed to a TopicPublisher.
// When PhoneNumber is set the message goes directly to that number instead of the topic.
type TopicMessage struct {
	Message     string
	Subject     string
	PhoneNumber string
}

// ReceivedMessage is a message returned by MessageQueue.Receive.
type ReceivedMessage struct {
	ID            string
	Body          string
	ReceiptHandle string
	Attributes    map[string]string
}

// EmailSender sends email through an email-sending provider.
type EmailSender interface {
	// SendEmail delivers msg and returns the provider's message id.
	SendEmail(ctx context.Context, msg EmailMessage) (string, error)
}

// TopicPublisher publishes to a pub/sub topic provider.
type TopicPublisher interface {
	// Publish delivers msg and returns the provider's message id.
	Publish(ctx context.Context, msg TopicMessage) (string, error)
}

// MessageQueue operates on a single fixed queue.
type MessageQueue interface {
	// Enqueue adds body to the queue, optionally delayed, and returns the message id.
	Enqueue(ctx context.Context, body string, attrs map[string]string, delay time.Duration) (string, error)

	// Receive long-polls for up to maxMessages, waiting at most wait.
	Receive(ctx context.Context, maxMessages int, wait time.Duration) ([]ReceivedMessage, error)

	// Delete removes a received message by its receipt handle.
	Delete(ctx context.Context, receiptHandle string) error

	// Release returns a received message to the queue; it becomes visible
	// again after delay.
	Release(ctx context.Context, receiptHandle string, delay time.Duration) error
}
