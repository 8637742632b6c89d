package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter implements a sliding window over a sorted set per user.
type RedisLimiter struct {
	client   *redis.Client
	observer Observer
	now      func() time.Time
}

func NewRedisLimiter(client *redis.Client, observer Observer) *RedisLimiter {
	return &RedisLimiter{client: client, observer: observer, now: time.Now}
}

func (rl *RedisLimiter) Allow(ctx context.Context, userID string, limit int) (Decision, error) {
	now := rl.now()
	windowStart := now.Add(-Window)
	key := "ratelimit:user:" + userID

	pipe := rl.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart.UnixMilli()))
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: fmt.Sprintf("%d", now.UnixNano()),
	})
	countCmd := pipe.ZCard(ctx, key)
	oldestCmd := pipe.ZRangeWithScores(ctx, key, 0, 0)
	// keys expire after two windows of inactivity
	pipe.Expire(ctx, key, 2*Window)

	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("failed to execute rate limit check: %w", err)
	}

	count, err := countCmd.Result()
	if err != nil {
		return Decision{}, fmt.Errorf("failed to get count: %w", err)
	}

	resetAt := now.Add(Window)
	if oldest, err := oldestCmd.Result(); err == nil && len(oldest) == 1 {
		resetAt = time.UnixMilli(int64(oldest[0].Score)).Add(Window)
	}

	d := Decision{
		Allowed:   count <= int64(limit),
		Limit:     limit,
		Remaining: max(limit-int(count), 0),
		ResetAt:   resetAt,
	}
	if !d.Allowed && rl.observer != nil {
		rl.observer.ObserveRateLimitRejection()
	}
	return d, nil
}
