package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter is the shared-counter variant of the throttle for
// deployments with more than one instance. Same contract as
// MemoryRateLimiter: fixed window, lazily expired.
type RedisRateLimiter struct {
	rdb    *redis.Client
	limit  int
	period time.Duration
}

func NewRedisRateLimiter(rdb *redis.Client, limit int) *RedisRateLimiter {
	return &RedisRateLimiter{rdb: rdb, limit: limit, period: time.Minute}
}

func (l *RedisRateLimiter) Allow(ctx context.Context, accountID string) (bool, error) {
	key := fmt.Sprintf("ratelimit:send:%s", accountID)

	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("incrementing rate-limit counter: %w", err)
	}
	if count == 1 {
		// First hit in this window owns the expiry.
		if err := l.rdb.Expire(ctx, key, l.period).Err(); err != nil {
			return false, fmt.Errorf("setting rate-limit window: %w", err)
		}
	}
	if count > int64(l.limit) {
		rateLimitRejectionsTotal.Inc()
		return false, nil
	}
	return true, nil
}
