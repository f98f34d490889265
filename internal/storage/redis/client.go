package redis

import (
	"context"
	"fmt"
	"github.com/ilindan-dev/notification-gateway/internal/config"
	goredis "github.com/redis/go-redis/v9"
	"time"
)

// pingTimeout bounds the connectivity check done at startup.
const pingTimeout = 5 * time.Second

// NewClient creates a go-redis client and verifies the server is reachable.
func NewClient(cfg *config.Config) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: failed to connect to %s: %w", cfg.Redis.Addr, err)
	}
	return client, nil
}
