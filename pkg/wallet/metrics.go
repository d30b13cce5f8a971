package wallet

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// BalanceTotal tracks the exchange-reported total balance per currency.
	BalanceTotal = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pmxt_wallet_balance_total",
		Help: "Total exchange balance by currency",
	}, []string{"currency"})

	// BalanceAvailable tracks the balance free for new orders.
	BalanceAvailable = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pmxt_wallet_balance_available",
		Help: "Available exchange balance by currency",
	}, []string{"currency"})

	// BalanceLocked tracks the balance reserved by open orders.
	BalanceLocked = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pmxt_wallet_balance_locked",
		Help: "Locked exchange balance by currency",
	}, []string{"currency"})

	// OpenPositions tracks the number of positions.
	OpenPositions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pmxt_wallet_open_positions",
		Help: "Number of open positions",
	})

	// PositionValue tracks size times current price summed over positions.
	PositionValue = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pmxt_wallet_position_value",
		Help: "Current value of all positions",
	})

	// UnrealizedPnL tracks unrealized profit and loss.
	UnrealizedPnL = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pmxt_wallet_unrealized_pnl",
		Help: "Unrealized PnL across positions",
	})

	// NativeBalance tracks the gas token balance of the tracked address.
	NativeBalance = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pmxt_wallet_native_balance",
		Help: "On-chain native balance (gas token units)",
	})

	// CollateralBalance tracks the on-chain collateral token balance.
	CollateralBalance = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pmxt_wallet_collateral_balance",
		Help: "On-chain collateral token balance",
	})

	// CollateralAllowance tracks the collateral approved to the exchange contract.
	CollateralAllowance = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pmxt_wallet_collateral_allowance",
		Help: "Collateral allowance approved to the exchange contract",
	})

	// UpdateErrorsTotal tracks failed polls.
	UpdateErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pmxt_wallet_update_errors_total",
		Help: "Total number of failed wallet polls",
	})

	// UpdateDuration tracks poll latency.
	UpdateDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pmxt_wallet_update_duration_seconds",
		Help:    "Duration of wallet polls",
		Buckets: prometheus.DefBuckets,
	})

	// LastUpdateTimestamp tracks the unix time of the last successful poll.
	LastUpdateTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pmxt_wallet_last_update_timestamp",
		Help: "Unix timestamp of the last successful wallet poll",
	})
)
