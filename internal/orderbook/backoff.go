package orderbook

import (
	"context"
	"math/rand"
	"time"
)

// BackoffConfig controls the delay between failed watch calls.
type BackoffConfig struct {
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	JitterPercent     float64 // 0.2 = 20%
}

// DefaultBackoffConfig starts at 500ms and caps at 30s.
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		InitialDelay:      500 * time.Millisecond,
		MaxDelay:          30 * time.Second,
		BackoffMultiplier: 2.0,
		JitterPercent:     0.2,
	}
}

// backoff is owned by a single watch loop.
type backoff struct {
	config  BackoffConfig
	current time.Duration
}

func newBackoff(cfg BackoffConfig) *backoff {
	return &backoff{config: cfg, current: cfg.InitialDelay}
}

// next returns the current delay with jitter and grows the delay for the
// following call.
func (b *backoff) next() time.Duration {
	jitter := rand.Float64() * b.config.JitterPercent //nolint:gosec // jitter only
	delay := time.Duration(float64(b.current) * (1.0 + jitter))

	grown := time.Duration(float64(b.current) * b.config.BackoffMultiplier)
	if grown > b.config.MaxDelay || grown <= 0 {
		grown = b.config.MaxDelay
	}
	b.current = grown
	return delay
}

func (b *backoff) reset() {
	b.current = b.config.InitialDelay
}

func (b *backoff) wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
