// Package metrics exposes Prometheus instrumentation for the engine: how
// often workflows are evaluated, how long evaluation takes, how many run
// sessions are live, and how the definition store is being used.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine's Prometheus collectors. All collectors are
// registered against the registry passed to New, never the global default
type Metrics struct {
	registry       *prometheus.Registry
	evaluations    *prometheus.CounterVec
	evalDuration   prometheus.Histogram
	navDecisions   *prometheus.CounterVec
	activeSessions prometheus.Gauge
	sessionsSwept  prometheus.Counter
	storeOps       *prometheus.CounterVec
}

const namespace = "fieldline"

// Evaluation operation label values
const (
	OpEvaluate = "evaluate"
	OpNext     = "next"
	OpValidate = "validate"
	OpSession  = "session"
)

// Navigation outcome label values
const (
	NavAdvance  = "advance"
	NavSkip     = "skip"
	NavComplete = "complete"
)

var evalDurationBuckets = []float64{
	0.0001, 0.0005, 0.001, 0.005, 0.025, 0.1, 0.5,
}

// New creates the engine metrics and registers them with the provided
// registry
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,

		evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "evaluations_total",
				Help:      "Total workflow evaluations by operation",
			},
			[]string{"operation"},
		),

		evalDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "evaluation_duration_seconds",
				Help:      "Workflow evaluation latency in seconds",
				Buckets:   evalDurationBuckets,
			},
		),

		navDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "nav_decisions_total",
				Help:      "Total navigation decisions by outcome",
			},
			[]string{"outcome"},
		),

		activeSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_sessions",
				Help:      "Run sessions currently held in memory",
			},
		),

		sessionsSwept: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_swept_total",
				Help:      "Total run sessions expired by the sweeper",
			},
		),

		storeOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_operations_total",
				Help:      "Total definition store operations by backend",
			},
			[]string{"operation", "backend"},
		),
	}

	registry.MustRegister(
		m.evaluations,
		m.evalDuration,
		m.navDecisions,
		m.activeSessions,
		m.sessionsSwept,
		m.storeOps,
	)

	return m
}

// Handler returns an HTTP handler that serves the registry in Prometheus
// exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// RecordEvaluation counts one evaluation and observes its latency
func (m *Metrics) RecordEvaluation(operation string, elapsed time.Duration) {
	m.evaluations.WithLabelValues(operation).Inc()
	m.evalDuration.Observe(elapsed.Seconds())
}

// RecordNavDecision counts one navigation decision
func (m *Metrics) RecordNavDecision(outcome string) {
	m.navDecisions.WithLabelValues(outcome).Inc()
}

// SessionStarted increments the live session gauge
func (m *Metrics) SessionStarted() {
	m.activeSessions.Inc()
}

// SessionEnded decrements the live session gauge
func (m *Metrics) SessionEnded() {
	m.activeSessions.Dec()
}

// RecordSweep counts sessions expired by one sweeper pass and lowers the
// live session gauge to match
func (m *Metrics) RecordSweep(count int) {
	if count <= 0 {
		return
	}
	m.sessionsSwept.Add(float64(count))
	m.activeSessions.Sub(float64(count))
}

// RecordStoreOp counts one definition store operation
func (m *Metrics) RecordStoreOp(operation, backend string) {
	m.storeOps.WithLabelValues(operation, backend).Inc()
}
