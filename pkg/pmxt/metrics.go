package pmxt

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// RequestDurationSeconds tracks sidecar call latency by method.
	RequestDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pmxt_client_request_duration_seconds",
		Help:    "Duration of sidecar API calls",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"method"})

	// RequestErrorsTotal counts failed sidecar calls by method.
	RequestErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pmxt_client_request_errors_total",
		Help: "Total number of failed sidecar API calls",
	}, []string{"method"})

	// CapabilityCacheHitsTotal counts Has lookups served from cache.
	CapabilityCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pmxt_client_capability_cache_hits_total",
		Help: "Total number of capability lookups served from cache",
	})
)
