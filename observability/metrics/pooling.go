package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type PoolingMetrics struct {
	opsTotal      *prometheus.CounterVec
	opFailures    *prometheus.CounterVec
	poolAvailable *prometheus.GaugeVec
	poolBorrowed  *prometheus.GaugeVec
	rewardIndex   *prometheus.GaugeVec
}

var (
	poolingOnce     sync.Once
	poolingRegistry *PoolingMetrics
)

func Pooling() *PoolingMetrics {
	poolingOnce.Do(func() {
		poolingRegistry = &PoolingMetrics{
			opsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "pooling_operations_total",
				Help: "Count of pooling engine operations by name.",
			}, []string{"op"}),
			opFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "pooling_operation_failures_total",
				Help: "Count of failed pooling engine operations by name.",
			}, []string{"op"}),
			poolAvailable: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "pooling_pool_available_amount",
				Help: "Idle liquidity held by each pool, in native token units.",
			}, []string{"pool"}),
			poolBorrowed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "pooling_pool_borrowed_amount",
				Help: "Borrowed liquidity per pool, in whole tokens.",
			}, []string{"pool"}),
			rewardIndex: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "pooling_reward_index",
				Help: "Current reward accrual index per pool and side.",
			}, []string{"pool", "side"}),
		}
		prometheus.MustRegister(
			poolingRegistry.opsTotal,
			poolingRegistry.opFailures,
			poolingRegistry.poolAvailable,
			poolingRegistry.poolBorrowed,
			poolingRegistry.rewardIndex,
		)
	})
	return poolingRegistry
}

func (m *PoolingMetrics) ObserveOp(op string, err error) {
	if m == nil {
		return
	}
	if op == "" {
		op = "unknown"
	}
	m.opsTotal.WithLabelValues(op).Inc()
	if err != nil {
		m.opFailures.WithLabelValues(op).Inc()
	}
}

func (m *PoolingMetrics) SetPoolLiquidity(pool string, available, borrowed float64) {
	if m == nil {
		return
	}
	m.poolAvailable.WithLabelValues(pool).Set(available)
	m.poolBorrowed.WithLabelValues(pool).Set(borrowed)
}

func (m *PoolingMetrics) SetRewardIndex(pool, side string, value float64) {
	if m == nil {
		return
	}
	m.rewardIndex.WithLabelValues(pool, side).Set(value)
}
