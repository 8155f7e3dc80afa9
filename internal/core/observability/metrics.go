package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status"},
	)

	columnOpSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "column_op_duration_seconds",
			Help:    "Duration of columnar operations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
		[]string{"op"},
	)

	columnRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "column_rows_total",
			Help: "Input positions processed by columnar operations.",
		},
		[]string{"op"},
	)

	columnNullsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "column_nulls_total",
			Help: "Null input positions seen by columnar operations.",
		},
		[]string{"op"},
	)

	spatialCandidates = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spatial_query_candidates",
			Help:    "Rectangle candidates per spatial query.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
		[]string{"shape"},
	)

	spatialMatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spatial_query_matches_total",
			Help: "Positions matched by spatial queries.",
		},
		[]string{"shape"},
	)

	storeOpSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "column_store_op_duration_seconds",
			Help:    "Latency of column store operations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"op", "result"},
	)
)

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

// ObserveOp records one columnar operation over rows input positions.
func ObserveOp(op string, rows, nulls int, durationSeconds float64) {
	columnOpSeconds.WithLabelValues(op).Observe(durationSeconds)
	columnRowsTotal.WithLabelValues(op).Add(float64(rows))
	columnNullsTotal.WithLabelValues(op).Add(float64(nulls))
}

// ObserveSpatialQuery records the stage-1 candidate count and the final
// match count of one query. shape is envelope, polygon, multipolygon or
// distance.
func ObserveSpatialQuery(shape string, candidates, matches int) {
	spatialCandidates.WithLabelValues(shape).Observe(float64(candidates))
	spatialMatchesTotal.WithLabelValues(shape).Add(float64(matches))
}

func ObserveStoreOp(op string, err error, durationSeconds float64) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	storeOpSeconds.WithLabelValues(op, result).Observe(durationSeconds)
}
