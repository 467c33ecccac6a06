package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	queryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_query_duration_seconds",
			Help:      "Moment store query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op", "outcome"},
	)

	queryResults = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_query_results",
			Help:      "Rows returned per listing query",
			Buckets:   []float64{0, 1, 5, 10, 20, 50, 100},
		},
		[]string{"op"},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Moment cache lookups by result",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(queryDuration, queryResults, cacheLookups)
}

// ObserveQuery records one store operation.
func ObserveQuery(op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	queryDuration.WithLabelValues(op, outcome).Observe(time.Since(start).Seconds())
}

func ObserveResults(op string, n int) {
	queryResults.WithLabelValues(op).Observe(float64(n))
}

// CacheLookup records a cache hit, miss or error.
func CacheLookup(result string) {
	cacheLookups.WithLabelValues(result).Inc()
}
