// Package ratelimit throttles requests with fixed-window Redis counters.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrRateLimited      = errors.New("rate limited")
	ErrRedisUnavailable = errors.New("redis unavailable")
)

// Limiter allows at most Max hits per key in each Window
type Limiter struct {
	redis  redis.UniversalClient
	prefix string
	max    int64
	window time.Duration
}

// New creates a Limiter. Keys are stored as prefix + ":" + key.
func New(client redis.UniversalClient, prefix string, max int, window time.Duration) *Limiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		redis:  client,
		prefix: prefix,
		max:    int64(max),
		window: window,
	}
}

// Allow records a hit for key and returns the hits left in the window.
// It returns ErrRateLimited once the window budget is spent and
// ErrRedisUnavailable when the counter can not be updated.
func (l *Limiter) Allow(ctx context.Context, key string) (int, error) {
	count, err := l.incrementWithTTL(ctx, l.key(key))
	if err != nil {
		return 0, err
	}
	if count > l.max {
		return 0, ErrRateLimited
	}
	return int(l.max - count), nil
}

// Max is the number of hits allowed per window
func (l *Limiter) Max() int {
	return int(l.max)
}

// RetryAfter returns the time left in the window of key
func (l *Limiter) RetryAfter(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := l.redis.PTTL(ctx, l.key(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

func (l *Limiter) key(key string) string {
	return l.prefix + ":" + key
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string) (int64, error) {
	var incr *redis.IntCmd
	// EXPIRE NX only opens the window on the first hit, a counter that
	// lost its TTL gets a fresh one on the next hit
	_, err := l.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, l.window)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return incr.Val(), nil
}
