package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Close() error
}

// fixed window: the first hit in a window sets its expiry
var windowScript = redis.NewScript(`
	local current = redis.call('INCR', KEYS[1])
	if current == 1 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	return current
`)

type redisLimiter struct {
	client *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

// NewRedis allows limit hits per key per window.
func NewRedis(client *redis.Client, prefix string, limit int, window time.Duration) Limiter {
	return &redisLimiter{
		client: client,
		prefix: prefix,
		limit:  int64(limit),
		window: window,
	}
}

// Dial connects to redisURL and checks the connection before returning.
func Dial(ctx context.Context, redisURL, prefix string, limit int, window time.Duration) (Limiter, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return NewRedis(client, prefix, limit, window), nil
}

func (r *redisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	n, err := windowScript.Run(ctx, r.client, []string{r.prefix + key}, r.window.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("rate limit check: %w", err)
	}
	return n <= r.limit, nil
}

func (r *redisLimiter) Close() error {
	return r.client.Close()
}

type disabled struct{}

// Disabled allows everything; used when no Redis is configured.
func Disabled() Limiter { return disabled{} }

func (disabled) Allow(context.Context, string) (bool, error) { return true, nil }
func (disabled) Close() error                                { return nil }
