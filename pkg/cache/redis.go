package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/school-records-api/pkg/config"
)

// pingTimeout bounds the connectivity check done at startup.
const pingTimeout = 5 * time.Second

// Options builds the client options for cfg.
func Options(cfg config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  pingTimeout,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	}
}

// NewRedis returns a connected Redis client, or an error when the server does
// not answer a ping.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(Options(cfg))

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", client.Options().Addr, err)
	}

	return client, nil
}
