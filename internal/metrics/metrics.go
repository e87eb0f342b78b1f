// Package metrics provides Prometheus metrics for the interview console.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "interview_console"

// Metrics holds all Prometheus metrics for the console.
type Metrics struct {
	// Session metrics
	SessionsStarted    prometheus.Counter
	SessionsTerminated prometheus.Counter
	SessionsActive     prometheus.Gauge
	SessionDuration    prometheus.Histogram

	// Turn metrics
	TurnsCompleted prometheus.Counter

	// Violation metrics
	Violations *prometheus.CounterVec

	// Backend API metrics
	APIRequests *prometheus.CounterVec
	APILatency  *prometheus.HistogramVec

	// Recognition metrics
	RecognitionRestarts prometheus.Counter
	RecognitionFailures prometheus.Counter
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Total number of interview sessions started",
		}),
		SessionsTerminated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_terminated_total",
			Help:      "Total number of interview sessions terminated",
		}),
		SessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of currently active interview sessions",
		}),
		SessionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Duration of interview sessions in seconds",
			Buckets:   []float64{60, 300, 600, 900, 1800, 2700, 3600, 7200},
		}),

		TurnsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_completed_total",
			Help:      "Total number of answered interview turns",
		}),

		Violations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "violations_total",
			Help:      "Total number of integrity violations recorded",
		}, []string{"kind"}),

		APIRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total number of backend session API requests",
		}, []string{"endpoint", "outcome"}),
		APILatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_latency_seconds",
			Help:      "Backend session API latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"endpoint"}),

		RecognitionRestarts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recognition_restarts_total",
			Help:      "Total number of automatic recognition engine restarts",
		}),
		RecognitionFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recognition_failures_total",
			Help:      "Total number of fatal recognition failures",
		}),
	}
}

// RecordSessionStart records a session entering the active phase.
func (m *Metrics) RecordSessionStart() {
	m.SessionsStarted.Inc()
	m.SessionsActive.Inc()
}

// RecordSessionEnd records a session leaving the active phase.
func (m *Metrics) RecordSessionEnd(durationSeconds float64) {
	m.SessionsTerminated.Inc()
	m.SessionsActive.Dec()
	m.SessionDuration.Observe(durationSeconds)
}

// RecordTurn records one answered question/answer turn.
func (m *Metrics) RecordTurn() {
	m.TurnsCompleted.Inc()
}

// RecordViolation records an integrity violation by kind.
func (m *Metrics) RecordViolation(kind string) {
	m.Violations.WithLabelValues(kind).Inc()
}

// RecordAPIRequest records one backend call with its outcome and latency.
func (m *Metrics) RecordAPIRequest(endpoint string, err error, latencySeconds float64) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.APIRequests.WithLabelValues(endpoint, outcome).Inc()
	m.APILatency.WithLabelValues(endpoint).Observe(latencySeconds)
}

// RecordRecognitionRestart records an automatic engine restart.
func (m *Metrics) RecordRecognitionRestart() {
	m.RecognitionRestarts.Inc()
}

// RecordRecognitionFailure records a fatal recognition failure.
func (m *Metrics) RecordRecognitionFailure() {
	m.RecognitionFailures.Inc()
}
