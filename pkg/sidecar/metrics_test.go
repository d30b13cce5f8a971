package sidecar

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRegistered(t *testing.T) {
	LaunchAttemptsTotal.Add(0)
	LaunchFailuresTotal.Add(0)
	StaleLocksRemovedTotal.Add(0)
	HealthProbesTotal.WithLabelValues("ok").Add(0)
	HealthProbesTotal.WithLabelValues("fail").Add(0)
	EnsureDurationSeconds.Observe(0)
}

func TestStaleLockMetric(t *testing.T) {
	s := newTestSupervisor(t, &Config{Prober: newFakeProber()})
	writeLock(t, s.LockPath(), map[string]any{"pid": 31337, "port": 1})

	before := testutil.ToFloat64(StaleLocksRemovedTotal)
	s.IsAlive(context.Background())
	after := testutil.ToFloat64(StaleLocksRemovedTotal)

	if after-before != 1 {
		t.Errorf("stale locks removed delta = %v, want 1", after-before)
	}
}
