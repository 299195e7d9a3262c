// Package metrics declares the prometheus collectors shared by both binaries.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CacheOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moviestore_cache_operations_total",
			Help: "Cache operations by operation and result",
		},
		[]string{"op", "result"}, // result: hit, miss, corrupt, unavailable, ok
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moviestore_http_requests_total",
			Help: "Handled HTTP requests by operation and status code",
		},
		[]string{"operation", "code"},
	)
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moviestore_http_request_duration_seconds",
			Help:    "Time taken to handle HTTP requests",
			Buckets: []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"operation"},
	)

	IngestRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moviestore_ingest_records_total",
			Help: "Ingested storage records by result",
		},
		[]string{"result"}, // created, updated, failed, skipped
	)
	IngestMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moviestore_ingest_messages_total",
			Help: "Queue messages handled by result",
		},
		[]string{"result"}, // acked, retained
	)
	IngestBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "moviestore_ingest_batch_duration_seconds",
			Help:    "Time taken to process one received batch",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
	)
)
