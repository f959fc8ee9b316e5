package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search Prometheus metrics.
var (
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mebooks",
			Name:      "searches_total",
			Help:      "Total number of searches by serving backend",
		},
		[]string{"backend"}, // "cache" / "semantic" / "keyword"
	)

	SearchFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mebooks",
			Name:      "search_fallbacks_total",
			Help:      "Semantic search failures absorbed by the keyword fallback",
		},
	)

	CacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mebooks",
			Name:      "cache_total",
			Help:      "Search cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	VectorRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mebooks",
			Name:      "vector_request_duration_seconds",
			Help:      "Vector search service request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint", "status"},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(SearchFallbacksTotal)
	prometheus.MustRegister(CacheTotal)
	prometheus.MustRegister(VectorRequestDuration)
	searchMetricsRegistered = true
}
