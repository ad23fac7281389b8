package fundgrube

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/time/rate"
)

// RateLimiter spaces out page requests so a run does not hammer the vendor.
// It uses a token bucket and counts every request it lets through.
type RateLimiter struct {
	limiter *rate.Limiter
	calls   atomic.Int64
}

// NewRateLimiter creates a rate limiter with the given per-second rate and
// burst size. A non-positive rate disables limiting.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(limit, burst)}
}

// Wait blocks until the rate limiter allows the call, or the context is canceled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}
	r.calls.Add(1)
	return nil
}

// Calls returns the number of requests let through so far.
func (r *RateLimiter) Calls() int64 {
	return r.calls.Load()
}
