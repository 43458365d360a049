package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Sliding implements a sliding window limiter backed by Redis sorted sets.
type Sliding struct {
	Client *redis.Client
	Prefix string
}

// Allow implements Limiter.
func (l Sliding) Allow(ctx context.Context, key string, rate Rate) (Decision, error) {
	now := time.Now()
	until := now.Add(rate.Window)
	if l.Client == nil || rate.Disabled() {
		return Decision{Allowed: true, Remaining: rate.Max, ResetAt: until}, nil
	}

	redisKey := l.Prefix + key
	pipe := l.Client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", fmt.Sprintf("%d", now.Add(-rate.Window).UnixNano()))
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
	countCmd := pipe.ZCard(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rate.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{ResetAt: until}, err
	}

	current := int(countCmd.Val())
	remaining := rate.Max - current
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: current <= rate.Max, Remaining: remaining, ResetAt: until}, nil
}
