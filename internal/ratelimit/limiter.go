package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultPerMinute is the request ceiling used when none is configured.
const DefaultPerMinute = 50

// Limiter is a shared minimum-interval gate. Each grant happens at least
// 60s/perMinute after the previous one, and grants are issued one at a time.
type Limiter struct {
	mu       sync.Mutex
	interval time.Duration
	pacer    *rate.Limiter
}

// New returns a gate allowing perMinute grants per minute. A non-positive
// rate returns a gate that never blocks.
func New(perMinute int) *Limiter {
	if perMinute <= 0 {
		return &Limiter{}
	}
	return NewWithInterval(time.Minute / time.Duration(perMinute))
}

// NewWithInterval returns a gate with an explicit minimum spacing.
func NewWithInterval(interval time.Duration) *Limiter {
	if interval <= 0 {
		return &Limiter{}
	}
	return &Limiter{
		interval: interval,
		pacer:    rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Interval returns the minimum spacing between grants (zero when disabled).
func (l *Limiter) Interval() time.Duration {
	if l == nil {
		return 0
	}
	return l.interval
}

// Wait blocks until the caller is granted a slot or ctx ends. The lock is held
// across the whole check-and-sleep so concurrent callers are served one by one.
func (l *Limiter) Wait(ctx context.Context) error {
	if ctx == nil {
		return errors.New("ratelimit: context unavailable")
	}
	if l == nil || l.pacer == nil {
		return ctx.Err()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pacer.Wait(ctx)
}
