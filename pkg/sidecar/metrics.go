package sidecar

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// LaunchAttemptsTotal counts launcher invocations.
	LaunchAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pmxt_sidecar_launch_attempts_total",
		Help: "Total number of pmxt-ensure-server invocations",
	})

	// LaunchFailuresTotal counts launcher invocations that failed.
	LaunchFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pmxt_sidecar_launch_failures_total",
		Help: "Total number of failed launcher invocations",
	})

	// HealthProbesTotal counts /health probes by result.
	HealthProbesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pmxt_sidecar_health_probes_total",
		Help: "Total number of /health probes by result",
	}, []string{"result"})

	// StaleLocksRemovedTotal counts lock files removed because their pid was gone.
	StaleLocksRemovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pmxt_sidecar_stale_locks_removed_total",
		Help: "Total number of stale lock files removed",
	})

	// EnsureDurationSeconds tracks how long EnsureRunning takes.
	EnsureDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pmxt_sidecar_ensure_duration_seconds",
		Help:    "Time spent ensuring the server is running",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 15},
	})
)
