package http

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROMETHEUS METRICS
// ══════════════════════════════════════════════════════════════════════════════

// Metrics collects request and job metrics for the /metrics endpoint.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	jobRunsTotal *prometheus.CounterVec
	jobDuration  *prometheus.HistogramVec

	snapshotCount    prometheus.Gauge
	watchlistSkipped prometheus.Gauge
}

// NewMetrics creates and registers the collectors. Pass
// prometheus.DefaultRegisterer for the standard /metrics output.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "insight_hub",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "insight_hub",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		jobRunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "insight_hub",
			Subsystem: "jobs",
			Name:      "runs_total",
			Help:      "Scheduled job runs by job name and outcome.",
		}, []string{"job", "outcome"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "insight_hub",
			Subsystem: "jobs",
			Name:      "duration_seconds",
			Help:      "Scheduled job duration by job name.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		}, []string{"job"}),
		snapshotCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "insight_hub",
			Subsystem: "risk",
			Name:      "last_snapshot_rows",
			Help:      "Rows written by the most recent snapshot run.",
		}),
		watchlistSkipped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "insight_hub",
			Subsystem: "risk",
			Name:      "last_watchlist_skipped_students",
			Help:      "Students skipped for data integrity in the most recent watchlist computation.",
		}),
	}

	reg.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.jobRunsTotal,
		m.jobDuration,
		m.snapshotCount,
		m.watchlistSkipped,
	)

	return m
}

// ObserveRequest records one completed HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveJob records one scheduled job run. Wire this into the
// scheduler's completion hook.
func (m *Metrics) ObserveJob(job string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.jobRunsTotal.WithLabelValues(job, outcome).Inc()
	m.jobDuration.WithLabelValues(job).Observe(duration.Seconds())
}

// SetSnapshotRows records the row count of the latest snapshot write.
func (m *Metrics) SetSnapshotRows(n int) {
	m.snapshotCount.Set(float64(n))
}

// SetWatchlistSkipped records the skipped-student count of the latest
// watchlist computation.
func (m *Metrics) SetWatchlistSkipped(n int) {
	m.watchlistSkipped.Set(float64(n))
}
