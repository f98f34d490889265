package templates

import (
	"context"
	"errors"
	"fmt"
	"github.com/ilindan-dev/notification-gateway/pkg/keybuilder"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Ensure RedisSource implements the interface
var _ Source = (*RedisSource)(nil)

// getter is the subset of the go-redis client used by RedisSource.
type getter interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
}

// RedisSource looks templates up under "template:<id>" keys.
type RedisSource struct {
	redis  getter
	logger zerolog.Logger
}

// NewRedisSource creates a template source on top of a go-redis client.
func NewRedisSource(redis getter, logger *zerolog.Logger) *RedisSource {
	return &RedisSource{
		redis:  redis,
		logger: logger.With().Str("layer", "redis_template_source").Logger(),
	}
}

// Load retrieves the template text stored for id.
func (s *RedisSource) Load(ctx context.Context, id string) (string, error) {
	if !validID.MatchString(id) {
		return "", fmt.Errorf("%w: invalid identifier %q", ErrTemplateNotFound, id)
	}
	key := keybuilder.TemplateKeyBuild(id)
	val, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			s.logger.Debug().Str("key", key).Msg("template not found in redis")
			return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
		}
		s.logger.Error().Err(err).Str("key", key).Msg("failed to get template from redis")
		return "", fmt.Errorf("redis: get %s: %w", key, err)
	}
	return val, nil
}
