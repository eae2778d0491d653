package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// ShippingQuoteTotal counts quote computations by outcome.
	ShippingQuoteTotal *prometheus.CounterVec
	// RateImportTotal counts bulk rate replace attempts by outcome.
	RateImportTotal *prometheus.CounterVec
	// SnapshotCacheTotal counts reference snapshot cache lookups by outcome.
	SnapshotCacheTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		ShippingQuoteTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shipping_quote_total",
			Help:      "Count of shipping quote computations by outcome.",
		}, []string{"result"})
		RateImportTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_import_total",
			Help:      "Count of producer rate table replace attempts by outcome.",
		}, []string{"result"})
		SnapshotCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shipping_snapshot_cache_total",
			Help:      "Count of shipping reference snapshot cache lookups.",
		}, []string{"result"})
		reg.MustRegister(ShippingQuoteTotal, RateImportTotal, SnapshotCacheTotal)
	})
}

// ObserveQuote records a quote outcome. Safe to call before registration.
func ObserveQuote(result string) {
	if ShippingQuoteTotal != nil {
		ShippingQuoteTotal.WithLabelValues(result).Inc()
	}
}

// ObserveRateImport records a bulk replace outcome. Safe to call before registration.
func ObserveRateImport(result string) {
	if RateImportTotal != nil {
		RateImportTotal.WithLabelValues(result).Inc()
	}
}

// ObserveSnapshotCache records a snapshot cache hit, miss or error.
func ObserveSnapshotCache(result string) {
	if SnapshotCacheTotal != nil {
		SnapshotCacheTotal.WithLabelValues(result).Inc()
	}
}
