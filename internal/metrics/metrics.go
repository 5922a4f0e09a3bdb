package metrics

import (
	"context"
	"fittrack/internal/audit"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the service
type Metrics struct {
	ResetEvents       *prometheus.CounterVec
	RateLimitDecision *prometheus.CounterVec
	JobRuns           *prometheus.CounterVec
	JobDuration       *prometheus.HistogramVec
	EndpointLatency   *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg. When reg is nil the
// default registry is used.
func New(reg *prometheus.Registry) *Metrics {
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if reg != nil {
		registerer, gatherer = reg, reg
	}
	factory := promauto.With(registerer)

	return &Metrics{
		ResetEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fittrack_password_reset_events_total",
			Help: "Total number of password reset audit events by type",
		}, []string{"type"}),
		RateLimitDecision: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fittrack_ratelimit_decisions_total",
			Help: "Total number of rate limit checks by scope and outcome",
		}, []string{"scope", "result"}),
		JobRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fittrack_job_runs_total",
			Help: "Total number of scheduled job runs",
		}, []string{"job", "status"}),
		JobDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fittrack_job_duration_seconds",
			Help:    "Duration of scheduled job runs in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
		EndpointLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fittrack_endpoint_latency_seconds",
			Help:    "Latency of endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		gatherer: gatherer,
	}
}

// Emit counts audit events; it lets Metrics sit beside the audit sinks
func (m *Metrics) Emit(_ context.Context, event audit.Event) {
	m.ResetEvents.WithLabelValues(string(event.Type)).Inc()
}

// ObserveRateLimit records a limiter decision
func (m *Metrics) ObserveRateLimit(scope string, allowed bool) {
	result := "allowed"
	if !allowed {
		result = "denied"
	}
	m.RateLimitDecision.WithLabelValues(scope, result).Inc()
}

// ObserveJob records a scheduled job run
func (m *Metrics) ObserveJob(job string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.JobRuns.WithLabelValues(job, status).Inc()
	m.JobDuration.WithLabelValues(job).Observe(duration.Seconds())
}

// ObserveRequest records the latency of a handled request
func (m *Metrics) ObserveRequest(method, route string, status int, duration time.Duration) {
	m.EndpointLatency.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}

// Handler serves the collected metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
