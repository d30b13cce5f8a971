package orderbook

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// UpdatesTotal tracks books received from watch calls.
	UpdatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pmxt_orderbook_updates_total",
		Help: "Total number of order book updates received",
	})

	// WatchErrorsTotal tracks failed watch calls.
	WatchErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pmxt_orderbook_watch_errors_total",
		Help: "Total number of failed order book watch calls",
	})

	// UpdatesDroppedTotal tracks updates dropped because the channel was full.
	UpdatesDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pmxt_orderbook_updates_dropped_total",
		Help: "Total number of order book updates dropped",
	})

	// SnapshotsTracked tracks the number of books held in memory.
	SnapshotsTracked = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pmxt_orderbook_snapshots_tracked",
		Help: "Number of order book snapshots tracked in memory",
	})
)
