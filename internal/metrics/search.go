package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docdex",
			Name:      "search_requests_total",
			Help:      "Total number of search requests",
		},
		[]string{"type", "status"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docdex",
			Name:      "search_duration_seconds",
			Help:      "Search duration in seconds, cache hits excluded",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"type"},
	)

	SearchCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docdex",
			Name:      "search_cache_total",
			Help:      "Search result cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	SearchFallbackTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "docdex",
			Name:      "search_vector_fallback_total",
			Help:      "Vector searches served by the in-process cosine fallback",
		},
	)
)

// RegisterSearchMetrics registers search metrics with the default registry.
func RegisterSearchMetrics() {
	prometheus.MustRegister(
		SearchRequestsTotal,
		SearchDuration,
		SearchCacheTotal,
		SearchFallbackTotal,
	)
}
