package ratelimit

import (
	"context"
	"fmt"
	"time"

	"currency-conversion-service/internal/domain/ports"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:"

// RedisLimiter is a fixed-window limiter shared by every instance pointed at
// the same redis.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, clientID string) (ports.RateLimitDecision, error) {
	key := keyPrefix + clientID

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return ports.RateLimitDecision{}, fmt.Errorf("incrementing %s: %w", key, err)
	}

	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return ports.RateLimitDecision{}, fmt.Errorf("setting expiry on %s: %w", key, err)
		}
	}

	ttl, err := l.client.TTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		ttl = l.window
	}

	decision := ports.RateLimitDecision{
		Limit:   l.limit,
		ResetAt: l.now().Add(ttl).UTC(),
	}
	if count > int64(l.limit) {
		return decision, nil
	}

	decision.Allowed = true
	decision.Remaining = l.limit - int(count)
	return decision, nil
}
