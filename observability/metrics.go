// Package observability exposes the prometheus instrumentation shared by the
// RPC surface and the daemon.
package observability

import (
	"math/big"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StakeMetrics records staking module activity.
type StakeMetrics struct {
	ops         *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	rewardsPaid prometheus.Counter
	poolBalance prometheus.Gauge
	totalStaked prometheus.Gauge
}

var (
	stakeMetricsOnce sync.Once
	stakeRegistry    *StakeMetrics
)

// Stake returns the lazily-initialised staking metrics registry.
func Stake() *StakeMetrics {
	stakeMetricsOnce.Do(func() {
		stakeRegistry = &StakeMetrics{
			ops: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "stakevault",
				Subsystem: "stake",
				Name:      "ops_total",
				Help:      "Total staking operations segmented by entry point and outcome.",
			}, []string{"op", "outcome"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "stakevault",
				Subsystem: "stake",
				Name:      "op_duration_seconds",
				Help:      "Latency distribution for staking entry points.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"op"}),
			rewardsPaid: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "stakevault",
				Subsystem: "stake",
				Name:      "rewards_paid_total",
				Help:      "Cumulative reward token units paid out by settlements.",
			}),
			poolBalance: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "stakevault",
				Subsystem: "stake",
				Name:      "reward_pool_balance",
				Help:      "Current reward pool balance in reward token units.",
			}),
			totalStaked: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "stakevault",
				Subsystem: "stake",
				Name:      "total_staked",
				Help:      "Aggregate staked amount across all positions.",
			}),
		}
		prometheus.MustRegister(
			stakeRegistry.ops,
			stakeRegistry.latency,
			stakeRegistry.rewardsPaid,
			stakeRegistry.poolBalance,
			stakeRegistry.totalStaked,
		)
	})
	return stakeRegistry
}

// ObserveOp records one staking operation with its outcome and duration.
func (m *StakeMetrics) ObserveOp(op, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues(op, outcome).Inc()
	m.latency.WithLabelValues(op).Observe(duration.Seconds())
}

// AddRewardsPaid accumulates a settled payout.
func (m *StakeMetrics) AddRewardsPaid(amount *big.Int) {
	if m == nil || amount == nil || amount.Sign() <= 0 {
		return
	}
	value, _ := new(big.Float).SetInt(amount).Float64()
	m.rewardsPaid.Add(value)
}

// SetPoolBalance publishes the current reward pool balance.
func (m *StakeMetrics) SetPoolBalance(balance *big.Int) {
	if m == nil || balance == nil {
		return
	}
	value, _ := new(big.Float).SetInt(balance).Float64()
	m.poolBalance.Set(value)
}

// SetTotalStaked publishes the current staked aggregate.
func (m *StakeMetrics) SetTotalStaked(total *big.Int) {
	if m == nil || total == nil {
		return
	}
	value, _ := new(big.Float).SetInt(total).Float64()
	m.totalStaked.Set(value)
}
