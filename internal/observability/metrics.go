package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	apiRequestsTotal     *prometheus.CounterVec
	apiLatencySeconds    *prometheus.HistogramVec
	apiErrorsTotal       *prometheus.CounterVec
	gradingOpsTotal      *prometheus.CounterVec
	latePenaltiesTotal   prometheus.Counter
	statsCacheTotal      *prometheus.CounterVec
	gradeEventsPublished *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the gradebook.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradebook_requests_total",
			Help: "Total number of gradebook API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gradebook_latency_seconds",
			Help:    "Latency distribution for gradebook API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradebook_errors_total",
			Help: "Total number of error responses returned by gradebook endpoints.",
		}, []string{"method", "route", "status"})

		gradingOpsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_operations_total",
			Help: "Grading attempts partitioned by outcome.",
		}, []string{"outcome"})

		latePenaltiesTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grading_late_penalties_total",
			Help: "Number of grades reduced by a late penalty.",
		})

		statsCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stats_cache_lookups_total",
			Help: "Course statistics cache lookups partitioned by result.",
		}, []string{"result"})

		gradeEventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grade_events_published_total",
			Help: "Grade events fanned out partitioned by transport and result.",
		}, []string{"transport", "result"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			gradingOpsTotal,
			latePenaltiesTotal,
			statsCacheTotal,
			gradeEventsPublished,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// GradingOperations counts grading attempts by outcome (graded, unchanged, rejected, failed).
func GradingOperations() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingOpsTotal
}

// LatePenalties counts grades that had a late penalty applied.
func LatePenalties() prometheus.Counter {
	RegisterMetrics()
	return latePenaltiesTotal
}

// StatsCacheLookups counts cache hits and misses for course statistics.
func StatsCacheLookups() *prometheus.CounterVec {
	RegisterMetrics()
	return statsCacheTotal
}

// GradeEventsPublished counts grade event deliveries.
func GradeEventsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return gradeEventsPublished
}
