package fetch

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer enforces a minimum delay between outbound requests. It wraps a
// token bucket limited to one event per quantum with no burst headroom, so
// the delay is a guarantee rather than an average.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer creates a Pacer granting one event per minDelay.
func NewPacer(minDelay time.Duration) *Pacer {
	if minDelay <= 0 {
		return &Pacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Every(minDelay), 1)}
}

// Wait blocks until the next request is allowed or the context ends.
func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
