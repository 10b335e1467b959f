package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	IndexerRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "audiosearch",
		Name:      "indexer_requests_total",
		Help:      "Total requests to indexers by indexer key and result status.",
	}, []string{"indexer", "status"})

	IndexerRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "audiosearch",
		Name:      "indexer_request_duration_seconds",
		Help:      "Indexer request duration in seconds.",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30},
	}, []string{"indexer"})

	IndexerAvailable = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "audiosearch",
		Name:      "indexer_available",
		Help:      "Whether an indexer is available (1) or blocked by circuit breaker (0).",
	}, []string{"indexer"})

	SearchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "audiosearch",
		Name:      "search_duration_seconds",
		Help:      "End-to-end search_for_audiobook duration in seconds, by mode.",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30},
	}, []string{"mode"})

	SearchResultsTotal = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "audiosearch",
		Name:      "search_results_count",
		Help:      "Number of results returned per search, by mode.",
		Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
	}, []string{"mode"})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		IndexerRequestsTotal,
		IndexerRequestDuration,
		IndexerAvailable,
		SearchDuration,
		SearchResultsTotal,
	)
}
