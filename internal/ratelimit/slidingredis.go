package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Limiter counts events per key inside a rolling window, backed by a Redis
// sorted set scored by event time in nanoseconds.
type Limiter struct {
	Client *redis.Client
	Prefix string
}

// Allow records one event for the key and reports whether the window still
// has room. A nil client, or a non-positive window or max, disables limiting.
func (l Limiter) Allow(ctx context.Context, key string, window time.Duration, max int) (allowed bool, remaining int, reset time.Time, err error) {
	now := time.Now()
	reset = now.Add(window)
	if l.Client == nil || max <= 0 || window <= 0 {
		return true, max, reset, nil
	}

	bucket := l.Prefix + key
	oldest := strconv.FormatInt(now.Add(-window).UnixNano(), 10)
	member := key + ":" + uuid.NewString()

	pipe := l.Client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, bucket, "-inf", oldest)
	pipe.ZAdd(ctx, bucket, redis.Z{Score: float64(now.UnixNano()), Member: member})
	count := pipe.ZCard(ctx, bucket)
	pipe.Expire(ctx, bucket, window)
	if _, err = pipe.Exec(ctx); err != nil {
		return false, 0, reset, err
	}

	inWindow := int(count.Val())
	remaining = max - inWindow
	if remaining < 0 {
		remaining = 0
	}
	return inWindow <= max, remaining, reset, nil
}
