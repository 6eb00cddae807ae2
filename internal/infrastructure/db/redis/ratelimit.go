package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateWindow = time.Minute

// RateLimiter is a fixed-window request counter backed by Redis.
// Key format: ratelimit:<scope>:<key>:<window_start_unix>
type RateLimiter struct {
	client *redis.Client
	scope  string
	limit  int64
	now    func() time.Time
}

// NewRateLimiter allows limit requests per key per minute within scope.
func NewRateLimiter(client *redis.Client, scope string, limit int) *RateLimiter {
	return &RateLimiter{client: client, scope: scope, limit: int64(limit), now: time.Now}
}

// Allow counts one request for key. When the window is exhausted it reports
// false together with the time left until the window resets.
func (l *RateLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	now := l.now()
	windowStart := now.Truncate(rateWindow)
	redisKey := l.key(key, windowStart)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rateWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("rate limit: %w", err)
	}

	if incr.Val() > l.limit {
		return false, windowStart.Add(rateWindow).Sub(now), nil
	}
	return true, 0, nil
}

func (l *RateLimiter) key(key string, windowStart time.Time) string {
	return fmt.Sprintf("ratelimit:%s:%s:%d", l.scope, key, windowStart.Unix())
}
