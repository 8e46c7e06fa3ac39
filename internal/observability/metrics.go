// Package observability provides Prometheus metrics for the application.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics.
type Metrics struct {
	gatherer prometheus.Gatherer

	// Job metrics
	JobsCreated    prometheus.Counter
	JobsCompleted  prometheus.Counter
	JobsFailed     prometheus.Counter
	JobsInProgress prometheus.Gauge
	JobDuration    prometheus.Histogram

	// Store and reclamation metrics
	StoredJobs     prometheus.Gauge
	ReclaimedTotal prometheus.Counter

	// Stream metrics
	StreamClients prometheus.Gauge

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates and registers all application metrics on reg. Pass
// prometheus.DefaultRegisterer in main and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	return &Metrics{
		gatherer: gatherer,

		JobsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ytmp3d",
			Subsystem: "jobs",
			Name:      "created_total",
			Help:      "Total number of conversion jobs started",
		}),
		JobsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ytmp3d",
			Subsystem: "jobs",
			Name:      "completed_total",
			Help:      "Total number of jobs that produced a deliverable",
		}),
		JobsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ytmp3d",
			Subsystem: "jobs",
			Name:      "failed_total",
			Help:      "Total number of jobs that ended with an error event",
		}),
		JobsInProgress: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "ytmp3d",
			Subsystem: "jobs",
			Name:      "in_progress",
			Help:      "Number of conversion workers currently running",
		}),
		JobDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ytmp3d",
			Subsystem: "jobs",
			Name:      "duration_seconds",
			Help:      "Histogram of job duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),

		StoredJobs: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "ytmp3d",
			Subsystem: "store",
			Name:      "jobs_current",
			Help:      "Current number of finished jobs awaiting retrieval",
		}),
		ReclaimedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ytmp3d",
			Subsystem: "store",
			Name:      "reclaimed_total",
			Help:      "Total number of job directories reclaimed after expiry",
		}),

		StreamClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "ytmp3d",
			Subsystem: "stream",
			Name:      "clients",
			Help:      "Number of connected progress stream clients",
		}),

		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ytmp3d",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ytmp3d",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Histogram of HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

// Handler returns an HTTP handler exposing the metrics this instance
// registered.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// JobTimer returns a function to record job duration.
func (m *Metrics) JobTimer() func() {
	start := time.Now()

	return func() {
		m.JobDuration.Observe(time.Since(start).Seconds())
	}
}

// RecordHTTPRequest records HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordJobCreated increments the jobs created counter.
func (m *Metrics) RecordJobCreated() {
	m.JobsCreated.Inc()
	m.JobsInProgress.Inc()
}

// RecordJobCompleted records a completed job.
func (m *Metrics) RecordJobCompleted() {
	m.JobsCompleted.Inc()
	m.JobsInProgress.Dec()
}

// RecordJobFailed records a failed job.
func (m *Metrics) RecordJobFailed() {
	m.JobsFailed.Inc()
	m.JobsInProgress.Dec()
}

// RecordReclaim records one reclaimed job directory.
func (m *Metrics) RecordReclaim() {
	m.ReclaimedTotal.Inc()
}

// SetStoredJobs sets the number of stored jobs.
func (m *Metrics) SetStoredJobs(count int) {
	m.StoredJobs.Set(float64(count))
}

// StreamClientConnected increments the connected stream clients gauge and
// returns a function to decrement it.
func (m *Metrics) StreamClientConnected() func() {
	m.StreamClients.Inc()

	return m.StreamClients.Dec
}
