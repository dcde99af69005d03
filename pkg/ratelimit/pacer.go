package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Pacer smooths outbound upstream calls to respect an upstream's own rate
// limit. Unlike FixedWindow, a token bucket is exactly the right shape here:
// the upstream cares about sustained request rate, not a hard per-window
// ceiling, so refill-based smoothing avoids bursts that a fixed window would
// otherwise let through at a window boundary.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer constructs a Pacer allowing ratePerSecond steady-state requests
// with a burst of burst. The reference upstream client uses NewPacer(1, 1)
// for the "~1s baseline pacing" called out in the concurrency model.
func NewPacer(ratePerSecond float64, burst int) *Pacer {
	return &Pacer{limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst)}
}

// Wait blocks until a token is available or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
