package kyc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the KYC registry.
type Metrics struct {
	RecordsWritten prometheus.Counter
	Lookups        prometheus.Counter
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		RecordsWritten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ryegate_kyc_records_written_total",
			Help: "Total KYC records upserted or revoked",
		}),
		Lookups: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ryegate_kyc_lookups_total",
			Help: "Total whitelist/accreditation lookups",
		}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ryegate_kyc_cache_hits_total",
			Help: "KYC lookups served from the redis cache",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ryegate_kyc_cache_misses_total",
			Help: "KYC lookups that fell through to the durable store",
		}),
	}
}

// NewNopMetrics returns metrics backed by unregistered collectors, for tests.
func NewNopMetrics() *Metrics {
	return &Metrics{
		RecordsWritten: prometheus.NewCounter(prometheus.CounterOpts{Name: "nop_kyc_records_written"}),
		Lookups:        prometheus.NewCounter(prometheus.CounterOpts{Name: "nop_kyc_lookups"}),
		CacheHits:      prometheus.NewCounter(prometheus.CounterOpts{Name: "nop_kyc_cache_hits"}),
		CacheMisses:    prometheus.NewCounter(prometheus.CounterOpts{Name: "nop_kyc_cache_misses"}),
	}
}

func (m *Metrics) ObserveWrite()     { m.RecordsWritten.Inc() }
func (m *Metrics) ObserveLookup()    { m.Lookups.Inc() }
func (m *Metrics) ObserveCacheHit()  { m.CacheHits.Inc() }
func (m *Metrics) ObserveCacheMiss() { m.CacheMisses.Inc() }
