package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopline/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewRedisClient connects to Redis and verifies the connection with a ping
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr(), err)
	}
	return client, nil
}

// Connect returns a Redis client when Redis is enabled and reachable.
// A nil client with a nil error means callers should use in-memory fallbacks.
func Connect(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*redis.Client, error) {
	if !cfg.Enabled {
		logger.Info("Redis disabled, using in-memory idempotency and token stores")
		return nil, nil
	}
	client, err := NewRedisClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("Connected to Redis", zap.String("addr", cfg.Addr()))
	return client, nil
}
