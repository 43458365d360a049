package ratelimit

import (
	"context"
	"time"

	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// Fixed is a fixed-window limiter over a ulule/limiter store. With the memory
// store it serves single-instance deployments that run without Redis.
type Fixed struct {
	Store limiter.Store
}

// NewMemory returns a Fixed limiter keeping counters in process memory.
func NewMemory(prefix string) Fixed {
	return Fixed{Store: memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          prefix,
		CleanUpInterval: time.Minute,
	})}
}

// Allow implements Limiter.
func (f Fixed) Allow(ctx context.Context, key string, rate Rate) (Decision, error) {
	if f.Store == nil || rate.Disabled() {
		return Decision{Allowed: true, Remaining: rate.Max, ResetAt: time.Now().Add(rate.Window)}, nil
	}
	lim := limiter.New(f.Store, limiter.Rate{Period: rate.Window, Limit: int64(rate.Max)})
	res, err := lim.Get(ctx, key)
	if err != nil {
		return Decision{}, err
	}
	return Decision{
		Allowed:   !res.Reached,
		Remaining: int(res.Remaining),
		ResetAt:   time.Unix(res.Reset, 0),
	}, nil
}
