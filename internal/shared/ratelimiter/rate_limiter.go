// Package ratelimiter throttles calls against an external provider's rate
// limit.
package ratelimiter

import (
	"log/slog"
	"sync"
	"time"
)

// RateLimiterInterface limits how often an operation such as an API call
// may run.
type RateLimiterInterface interface {
	WaitIfNeeded()
}

// RateLimiter is a fixed-window limiter: up to limit calls per interval,
// then the caller sleeps until the window resets. It is safe to share
// across the ingestion worker pool; the mutex is held while sleeping so the
// whole pool throttles together.
type RateLimiter struct {
	limit     int
	interval  time.Duration
	mu        sync.Mutex
	count     int
	lastReset time.Time
}

// NewRateLimiter creates a limiter allowing limit calls per interval.
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:     limit,
		interval:  interval,
		lastReset: time.Now(),
	}
}

// WaitIfNeeded blocks until the current window has capacity for one more
// call.
func (rl *RateLimiter) WaitIfNeeded() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastReset) >= rl.interval {
		rl.count = 0
		rl.lastReset = now
	}

	rl.count++
	if rl.count > rl.limit {
		sleep := rl.interval - now.Sub(rl.lastReset)
		if sleep > 0 {
			slog.Info("rate limit reached, sleeping", "limit", rl.limit, "sleep", sleep)
			time.Sleep(sleep)
		}
		rl.count = 1
		rl.lastReset = time.Now()
	}
}
