package awsclient

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/ilindan-dev/notification-gateway/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestNewSession(t *testing.T) {
	logger := zerolog.Nop()
	cfg := &config.Config{AWS: config.AWSConfig{
		Region:          "eu-central-1",
		Endpoint:        "http://localhost:4566",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
	}}

	sess, err := NewSession(cfg, &logger)
	require.NoError(t, err)

	assert.Equal(t, "eu-central-1", aws.StringValue(sess.Config.Region))
	assert.Equal(t, "http://localhost:4566", aws.StringValue(sess.Config.Endpoint))

	creds, err := sess.Config.Credentials.Get()
	require.NoError(t, err)
	assert.Equal(t, "test", creds.AccessKeyID)
}
