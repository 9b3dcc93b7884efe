package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics the simulator exports.
type Metrics struct {
	ActionsExecuted *prometheus.CounterVec
	ActionsRejected *prometheus.CounterVec
	ActionDuration  *prometheus.HistogramVec

	MarketTokenSupply *prometheus.GaugeVec
	PoolAmount        *prometheus.GaugeVec

	FeesForPool     *prometheus.CounterVec
	FeesForReceiver *prometheus.CounterVec

	PriceImpact        *prometheus.HistogramVec
	FundingRate        *prometheus.GaugeVec
	DistributionAmount *prometheus.CounterVec

	RevertibleCommits  prometheus.Counter
	RevertibleDiscards prometheus.Counter
}

// NewMetrics creates and registers all metrics.
func NewMetrics() *Metrics {
	durationBuckets := []float64{
		0.000001, 0.000005, 0.00001, 0.000025, 0.00005,
		0.0001, 0.00025, 0.0005, 0.001, 0.002, 0.005, 0.01,
	}

	return &Metrics{
		ActionsExecuted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "perp_engine_actions_executed_total",
			Help: "Actions executed successfully",
		}, []string{"market", "action"}),

		ActionsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "perp_engine_actions_rejected_total",
			Help: "Actions rejected by validation or arithmetic checks",
		}, []string{"market", "action", "reason"}),

		ActionDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "perp_engine_action_duration_seconds",
			Help:    "Time to execute a single action",
			Buckets: durationBuckets,
		}, []string{"market", "action"}),

		MarketTokenSupply: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "perp_engine_market_token_supply",
			Help: "Market token total supply",
		}, []string{"market"}),

		PoolAmount: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "perp_engine_pool_amount",
			Help: "Pool side amount",
		}, []string{"market", "pool", "side"}),

		FeesForPool: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "perp_engine_fees_for_pool_total",
			Help: "Fees retained by the pool",
		}, []string{"market", "action"}),

		FeesForReceiver: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "perp_engine_fees_for_receiver_total",
			Help: "Fees routed to the fee receiver",
		}, []string{"market", "action"}),

		PriceImpact: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "perp_engine_price_impact_usd",
			Help:    "Absolute price impact per action in USD",
			Buckets: prometheus.ExponentialBuckets(1, 10, 12),
		}, []string{"market", "action", "sign"}),

		FundingRate: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "perp_engine_funding_factor_per_second",
			Help: "Signed funding factor per second",
		}, []string{"market"}),

		DistributionAmount: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "perp_engine_position_impact_distributed_total",
			Help: "Position impact pool amount distributed",
		}, []string{"market"}),

		RevertibleCommits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "perp_engine_revertible_commits_total",
			Help: "Revertible wrappers committed",
		}),

		RevertibleDiscards: promauto.NewCounter(prometheus.CounterOpts{
			Name: "perp_engine_revertible_discards_total",
			Help: "Revertible wrappers discarded",
		}),
	}
}
