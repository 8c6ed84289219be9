// Package ratelimit throttles per-identity request classes with fixed
// windows kept in Redis.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"chiptable/internal/apperr"
	"chiptable/internal/config"

	"github.com/redis/go-redis/v9"
)

type Class string

const (
	ClassAction Class = "action"
	ClassJoin   Class = "join"
)

var ErrLimited = apperr.New(apperr.KindBusinessRule, "rate_limited", "Too many requests, slow down").WithStatus(429)

type Limiter interface {
	Allow(ctx context.Context, identityID string, class Class) (bool, error)
}

type Noop struct{}

func (Noop) Allow(context.Context, string, Class) (bool, error) { return true, nil }

type RedisLimiter struct {
	client *redis.Client
	limits map[Class]int
	window time.Duration
}

const defaultWindow = 10 * time.Second

func NewRedisLimiter(client *redis.Client, cfg config.RedisConfig) *RedisLimiter {
	window := cfg.Window
	if window <= 0 {
		window = defaultWindow
	}
	return &RedisLimiter{
		client: client,
		limits: map[Class]int{ClassAction: cfg.ActionLimit, ClassJoin: cfg.JoinLimit},
		window: window,
	}
}

// Open connects to Redis when an address is configured and returns Noop
// otherwise. The returned close func is never nil.
func Open(ctx context.Context, cfg config.RedisConfig) (Limiter, func() error, error) {
	if cfg.Addr == "" {
		return Noop{}, func() error { return nil }, nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisLimiter(client, cfg), client.Close, nil
}

func (l *RedisLimiter) Allow(ctx context.Context, identityID string, class Class) (bool, error) {
	limit, ok := l.limits[class]
	if !ok || limit <= 0 {
		return true, nil
	}
	key := fmt.Sprintf("ratelimit:%s:%s", identityID, class)
	// SET NX EX opens the window with its expiry and INCR counts into it.
	// Both run in one MULTI so a counter never exists without a TTL.
	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, l.window)
		incr = pipe.Incr(ctx, key)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("check rate limit: %w", err)
	}
	count := incr.Val()
	return count <= int64(limit), nil
}
