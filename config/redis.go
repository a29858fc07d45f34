package config

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPoolSize = 10

// NewRedisClient creates a redis client from cfg and pings it.
func NewRedisClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		PoolSize: defaultRedisPoolSize,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}
