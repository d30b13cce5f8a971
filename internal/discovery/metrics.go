package discovery

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// MarketsDiscoveredTotal tracks markets returned by polls.
	MarketsDiscoveredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pmxt_discovery_markets_total",
		Help: "Total number of markets returned by discovery polls",
	})

	// NewMarketsTotal tracks markets seen for the first time.
	NewMarketsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pmxt_discovery_new_markets_total",
		Help: "Total number of newly discovered markets",
	})

	// PollDurationSeconds tracks poll latency.
	PollDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pmxt_discovery_poll_duration_seconds",
		Help:    "Duration of discovery polls",
		Buckets: prometheus.DefBuckets,
	})

	// PollErrorsTotal tracks failed polls.
	PollErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pmxt_discovery_poll_errors_total",
		Help: "Total number of failed discovery polls",
	})
)
