package retry

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// Backoff yields the pause before the next attempt
type Backoff interface {
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff doubles (or multiplies) the pause after every failed
// page operation, capped at MaxDelay, with optional symmetric jitter
type ExponentialBackoff struct {
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	JitterFactor float64 // 0..1
}

// NextDelay returns the pause that precedes retry number attempt (1-based)
func (b *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	d := float64(b.BaseDelay) * math.Pow(b.Multiplier, float64(attempt-1))
	if b.MaxDelay > 0 {
		d = math.Min(d, float64(b.MaxDelay))
	}
	if b.JitterFactor > 0 {
		spread := d * b.JitterFactor
		d += rand.Float64()*2*spread - spread
	}
	return time.Duration(math.Max(d, 0))
}

// fixedBackoff always waits the same amount. Used when no ramp is wanted
type fixedBackoff time.Duration

func (f fixedBackoff) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	return time.Duration(f)
}

// Wait pauses for d, returning early with ctx.Err() when ctx ends first
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
