package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "showcase_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "showcase_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// ProjectTransitions counts project lifecycle events (created, updated, resubmitted, approved, ...).
	ProjectTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "showcase_project_transitions_total",
		Help: "Project lifecycle events by kind",
	}, []string{"event"})

	// ImageUploads counts two-phase upload steps by stage and outcome.
	ImageUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "showcase_image_uploads_total",
		Help: "Image upload steps by stage and outcome",
	}, []string{"stage", "outcome"})

	// StorageLatency records object storage call latency by operation.
	StorageLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "showcase_storage_latency_seconds",
		Help:    "Object storage call latency in seconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"operation"})

	// RankingSubmissions counts ranking replacements.
	RankingSubmissions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "showcase_ranking_submissions_total",
		Help: "Total number of reviewer ranking replacements",
	})

	// Invalidations counts processed cache invalidation messages by result.
	Invalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "showcase_invalidations_total",
		Help: "Cache invalidation messages by result",
	}, []string{"result"})
)

// TrackStorage returns a func that records the latency of a storage call (e.g. defer).
func TrackStorage(operation string) func() {
	start := time.Now()
	return func() {
		StorageLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

// TrackQuery returns a func that records query latency when called.
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
