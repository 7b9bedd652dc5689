package util

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a token-bucket rate limiter with a bucket depth of one,
// replenishing at a fixed rate. It spaces out calls rather than allowing
// bursts, which matches how broker APIs meter per-minute request quotas.
type RateLimiter struct {
	interval time.Duration // time between tokens
	next     time.Time     // earliest time the next token is available
	mu       sync.Mutex
}

// NewRateLimiter creates a RateLimiter that allows perMinute operations per
// minute. The first call proceeds immediately.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute < 1 {
		perMinute = 1
	}
	return &RateLimiter{
		interval: time.Minute / time.Duration(perMinute),
		next:     time.Now(),
	}
}

// Wait blocks until a rate-limit token is available or the context is
// cancelled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	rl.mu.Lock()
	now := time.Now()
	wait := rl.next.Sub(now)
	if wait < 0 {
		wait = 0
		rl.next = now
	}
	rl.next = rl.next.Add(rl.interval)
	rl.mu.Unlock()

	if wait == 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}
