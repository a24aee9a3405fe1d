package notes

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the note ledger and yield engine.
type Metrics struct {
	Issued           prometheus.Counter
	Transfers        prometheus.Counter
	Redemptions      prometheus.Counter
	GateRejections   *prometheus.CounterVec
	Distributions    prometheus.Counter
	Claims           prometheus.Counter
	PoolBalance      prometheus.Gauge
	TotalSupplyGauge prometheus.Gauge
}

func NewMetrics() *Metrics {
	return &Metrics{
		Issued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ryegate_notes_issued_total",
			Help: "Total issuance operations",
		}),
		Transfers: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ryegate_notes_transfers_total",
			Help: "Total successful transfers",
		}),
		Redemptions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ryegate_notes_redemptions_total",
			Help: "Total redemption operations",
		}),
		GateRejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ryegate_compliance_rejections_total",
			Help: "Compliance gate rejections by reason",
		}, []string{"reason"}),
		Distributions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ryegate_yield_distributions_total",
			Help: "Total yield distribution events",
		}),
		Claims: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ryegate_yield_claims_total",
			Help: "Total successful yield claims",
		}),
		PoolBalance: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "ryegate_yield_pool_balance_units",
			Help: "Current yield pool balance in reserve base units",
		}),
		TotalSupplyGauge: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "ryegate_notes_total_supply_units",
			Help: "Current total note supply in base units",
		}),
	}
}

// NewNopMetrics returns unregistered collectors for tests.
func NewNopMetrics() *Metrics {
	return &Metrics{
		Issued:      prometheus.NewCounter(prometheus.CounterOpts{Name: "nop_issued"}),
		Transfers:   prometheus.NewCounter(prometheus.CounterOpts{Name: "nop_transfers"}),
		Redemptions: prometheus.NewCounter(prometheus.CounterOpts{Name: "nop_redemptions"}),
		GateRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nop_gate_rejections",
		}, []string{"reason"}),
		Distributions:    prometheus.NewCounter(prometheus.CounterOpts{Name: "nop_distributions"}),
		Claims:           prometheus.NewCounter(prometheus.CounterOpts{Name: "nop_claims"}),
		PoolBalance:      prometheus.NewGauge(prometheus.GaugeOpts{Name: "nop_pool_balance"}),
		TotalSupplyGauge: prometheus.NewGauge(prometheus.GaugeOpts{Name: "nop_total_supply"}),
	}
}
