package api

import (
	"context"

	"golang.org/x/time/rate"
)

// rateLimiter throttles outgoing API calls so bursts of uploads do not
// hammer the remote service.
type rateLimiter struct {
	limiter *rate.Limiter
}

func newRateLimiter(rps float64, burst int) *rateLimiter {
	if rps <= 0 {
		rps = 10
	}
	if burst <= 0 {
		burst = 1
	}
	return &rateLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (r *rateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
