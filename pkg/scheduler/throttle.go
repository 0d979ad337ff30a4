package scheduler

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Throttle limits executions per key (the processor keys by owning user).
// Excess work waits for capacity rather than being dropped.
type Throttle struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewThrottle allows perWindow executions per key per window. The full
// allowance is available as burst, so a batch within the limit passes
// without delay and only the excess is deferred.
func NewThrottle(perWindow int, window time.Duration) *Throttle {
	return &Throttle{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(float64(perWindow) / window.Seconds()),
		burst:    perWindow,
	}
}

// Wait blocks until the key has capacity or ctx is cancelled.
func (t *Throttle) Wait(ctx context.Context, key string) error {
	return t.limiter(key).Wait(ctx)
}

// Allow reports whether the key has capacity right now, consuming one slot
// if so.
func (t *Throttle) Allow(key string) bool {
	return t.limiter(key).Allow()
}

func (t *Throttle) limiter(key string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()
	limiter, ok := t.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(t.limit, t.burst)
		t.limiters[key] = limiter
	}
	return limiter
}
