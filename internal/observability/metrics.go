// Package observability exposes the Prometheus collectors for the analytics API.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache lookup results
const (
	CacheHit    = "hit"
	CacheMiss   = "miss"
	CacheBypass = "bypass"
	CacheError  = "error"
)

var (
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agrosync_analytics_cache_lookups_total",
		Help: "Analytics cache lookups by module and result",
	}, []string{"module", "result"})

	AggregationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agrosync_analytics_aggregation_seconds",
		Help:    "Time spent computing an analytics document on a cache miss",
		Buckets: prometheus.DefBuckets,
	}, []string{"module"})

	AggregationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agrosync_analytics_aggregation_failures_total",
		Help: "Aggregations that failed and were reported as internal errors",
	}, []string{"module"})

	InsightRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agrosync_insight_gateway_requests_total",
		Help: "Calls to the insight service by outcome",
	}, []string{"outcome"})

	JobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agrosync_analytics_jobs_total",
		Help: "Export and report jobs by kind and terminal status",
	}, []string{"kind", "status"})

	WorkerRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agrosync_worker_runs_total",
		Help: "Background worker runs by job name and result",
	}, []string{"job", "result"})

	WorkerActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "agrosync_worker_active_jobs",
		Help: "Background jobs currently running",
	})
)

// ObserveAggregation records how long a module took to compute.
func ObserveAggregation(module string, started time.Time) {
	AggregationDuration.WithLabelValues(module).Observe(time.Since(started).Seconds())
}
