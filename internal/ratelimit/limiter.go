// Package ratelimit gates provider API calls to a calls-per-minute ceiling.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Limiter enforces a fixed minimum interval between calls (interval =
// 60s/limit). Burst is pinned to 1, so suspended callers resume in FIFO
// order and calls never bunch up after an idle period.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a Limiter for the given calls-per-minute ceiling. A ceiling
// of zero or less disables limiting.
func New(callsPerMinute int) *Limiter {
	if callsPerMinute <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	interval := time.Minute / time.Duration(callsPerMinute)
	return &Limiter{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Acquire suspends the caller until issuing another call stays within the
// ceiling, or until the context is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}
