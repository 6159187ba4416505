package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "campaigns:ratelimit"

// RedisLimiter implements a fixed-window counter on Redis (INCR + EXPIRE).
type RedisLimiter struct {
	client *redis.Client
	cfg    Config
	logger *slog.Logger
}

func NewRedisLimiter(client *redis.Client, cfg Config, logger *slog.Logger) *RedisLimiter {
	return &RedisLimiter{client: client, cfg: cfg, logger: logger}
}

// NewRedisClient builds the shared Redis client used by the limiter.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		MinIdleConns: 2,
		MaxRetries:   3,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	fullKey := fmt.Sprintf("%s:%s", keyPrefix, key)

	count, err := l.client.Incr(ctx, fullKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}
	if count == 1 {
		// First hit in this window owns the expiry.
		if err := l.client.Expire(ctx, fullKey, l.cfg.Window).Err(); err != nil {
			l.logger.WarnContext(ctx, "Failed to set rate limit window expiry", "key", fullKey, "error", err)
		}
	}

	return count <= int64(l.cfg.Requests), nil
}
