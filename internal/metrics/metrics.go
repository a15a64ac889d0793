// Package metrics provides Prometheus instrumentation for the shopfront client.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for shopfront.
// Pass to components that need to record metrics.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	StoreActions     *prometheus.CounterVec
	CartItems        prometheus.Gauge
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter
}

// NewMetrics creates and registers all metrics with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RequestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "shopfront",
				Name:      "requests_total",
				Help:      "Total number of API requests sent",
			},
			[]string{"method", "path", "status"}, // path is the route template, e.g. /products/{id}
		),
		RequestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "shopfront",
				Name:      "request_duration_seconds",
				Help:      "API request duration in seconds",
				Buckets:   prometheus.DefBuckets, // 5ms to 10s
			},
			[]string{"method"},
		),
		StoreActions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "shopfront",
				Name:      "store_actions_total",
				Help:      "Total store actions executed",
			},
			[]string{"store", "action", "result"}, // result=ok/error
		),
		CartItems: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: "shopfront",
				Name:      "cart_items",
				Help:      "Number of line items currently in the cart",
			},
		),
		CacheHitsTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "shopfront",
				Name:      "cache_hits_total",
				Help:      "Total GET response cache hits",
			},
		),
		CacheMissesTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "shopfront",
				Name:      "cache_misses_total",
				Help:      "Total GET response cache misses",
			},
		),
	}
}
