package config

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "Notification Service", cfg.App.Name)
	assert.Equal(t, "8082", cfg.HTTP.Port)
	assert.Equal(t, ":8082", cfg.HTTP.Addr())
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "us-east-1", cfg.AWS.Region)
	assert.Equal(t, "ses", cfg.Notifiers.Email.Provider)
	assert.False(t, cfg.Notifiers.Email.EscapePlainBody)
	assert.False(t, cfg.SNS.DirectSMS)
	assert.Equal(t, "fs", cfg.Templates.Source)
	assert.Equal(t, "sqs", cfg.Queue.Backend)
	assert.Equal(t, 5, cfg.Worker.Count)
	assert.Equal(t, 20*time.Second, cfg.Worker.WaitTime)
	assert.Equal(t, 30*time.Second, cfg.Worker.RedeliveryDelay)
}

func TestNewConfig_Environment(t *testing.T) {
	t.Setenv("APP_NAME", "Campus Notifications")
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("SNS_TOPIC_ARN", "arn:aws:sns:eu-west-1:123456789012:events")
	t.Setenv("SES_SENDER_EMAIL", "events@campus.edu")
	t.Setenv("SQS_QUEUE_URL", "https://sqs.eu-west-1.amazonaws.com/123456789012/notifications")
	t.Setenv("SNS_DIRECT_SMS", "true")
	t.Setenv("WORKER_WAIT_TIME", "5s")
	t.Setenv("WORKER_REDELIVERY_DELAY", "2m")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "Campus Notifications", cfg.App.Name)
	assert.Equal(t, ":9090", cfg.HTTP.Addr())
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "eu-west-1", cfg.AWS.Region)
	assert.Equal(t, "arn:aws:sns:eu-west-1:123456789012:events", cfg.SNS.TopicARN)
	assert.Equal(t, "events@campus.edu", cfg.SES.SenderEmail)
	assert.Equal(t, "https://sqs.eu-west-1.amazonaws.com/123456789012/notifications", cfg.SQS.QueueURL)
	assert.True(t, cfg.SNS.DirectSMS)
	assert.Equal(t, 5*time.Second, cfg.Worker.WaitTime)
	assert.Equal(t, 2*time.Minute, cfg.Worker.RedeliveryDelay)
}

func TestNewConfig_RejectsUnknownBackend(t *testing.T) {
	t.Setenv("QUEUE_BACKEND", "kafka")

	_, err := NewConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue.backend")
}

func TestValidate(t *testing.T) {
	valid := Config{
		Notifiers: NotifiersConfig{Mode: "log_only", Email: EmailConfig{Provider: "smtp"}},
		Templates: TemplatesConfig{Source: "redis"},
		Queue:     QueueConfig{Backend: "rabbitmq"},
		Worker:    WorkerConfig{Count: 1},
	}
	assert.NoError(t, valid.Validate())

	noWorkers := valid
	noWorkers.Worker.Count = 0
	assert.Error(t, noWorkers.Validate())

	negativeDelay := valid
	negativeDelay.Worker.RedeliveryDelay = -time.Second
	assert.Error(t, negativeDelay.Validate())

	badMode := valid
	badMode.Notifiers.Mode = "staging"
	assert.Error(t, badMode.Validate())
}
