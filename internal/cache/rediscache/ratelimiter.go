package rediscache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Count      int64
	RetryAfter time.Duration // 0 when allowed
}

// RateLimiter is a fixed-window counter: one key per window, expiring with it.
type RateLimiter struct {
	c      *redis.Client
	prefix string
}

func NewRateLimiter(addr string) *RateLimiter {
	return &RateLimiter{
		c:      redis.NewClient(&redis.Options{Addr: addr}),
		prefix: "rl:",
	}
}

// Allow делает INCR по ключу окна; TTL ставится только при создании ключа,
// поэтому окно не сдвигается от каждого запроса.
func (rl *RateLimiter) Allow(ctx context.Context, key string, limit int64, window time.Duration) (Decision, error) {
	k := rl.prefix + key

	n, err := rl.c.Incr(ctx, k).Result()
	if err != nil {
		return Decision{}, errors.Wrap(err, "redis ratelimit incr")
	}
	if n == 1 {
		if err := rl.c.PExpire(ctx, k, window).Err(); err != nil {
			return Decision{}, errors.Wrap(err, "redis ratelimit expire")
		}
	}
	if n <= limit {
		return Decision{Allowed: true, Count: n}, nil
	}

	ttl, err := rl.c.PTTL(ctx, k).Result()
	if err != nil {
		return Decision{}, errors.Wrap(err, "redis ratelimit ttl")
	}
	if ttl <= 0 {
		// ключ потерял TTL (например, после рестарта без persistence) - чиним
		ttl = window
		_ = rl.c.PExpire(ctx, k, window).Err()
	}
	return Decision{Allowed: false, Count: n, RetryAfter: ttl}, nil
}

func (rl *RateLimiter) Close() error {
	return rl.c.Close()
}
