package orderbook

import (
	"context"
	"testing"
	"time"
)

func TestBackoff_GrowsAndCaps(t *testing.T) {
	b := newBackoff(BackoffConfig{
		InitialDelay:      100 * time.Millisecond,
		MaxDelay:          300 * time.Millisecond,
		BackoffMultiplier: 2,
	})

	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond, 300 * time.Millisecond}
	for i, w := range want {
		if got := b.next(); got != w {
			t.Errorf("attempt %d: delay = %v, want %v", i, got, w)
		}
	}

	b.reset()
	if got := b.next(); got != 100*time.Millisecond {
		t.Errorf("after reset: delay = %v, want 100ms", got)
	}
}

func TestBackoff_Jitter(t *testing.T) {
	b := newBackoff(BackoffConfig{
		InitialDelay:      100 * time.Millisecond,
		MaxDelay:          time.Second,
		BackoffMultiplier: 1,
		JitterPercent:     0.2,
	})

	for i := 0; i < 50; i++ {
		got := b.next()
		if got < 100*time.Millisecond || got > 120*time.Millisecond {
			t.Fatalf("delay %v outside [100ms, 120ms]", got)
		}
	}
}

func TestBackoff_WaitHonoursContext(t *testing.T) {
	b := newBackoff(DefaultBackoffConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if err := b.wait(ctx, time.Minute); err == nil {
		t.Error("expected context error")
	}
	if time.Since(start) > time.Second {
		t.Error("wait ignored cancellation")
	}

	if err := b.wait(context.Background(), time.Millisecond); err != nil {
		t.Errorf("wait: %v", err)
	}
}
