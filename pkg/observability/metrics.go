// Package observability exposes Prometheus metrics for the interview engine.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds all Prometheus metrics for the application.
// Each Collector owns its registry so tests can construct collectors
// independently without duplicate registration panics.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Interview metrics
	TurnsTotal        *prometheus.CounterVec
	FallbacksTotal    *prometheus.CounterVec
	SessionsStarted   prometheus.Counter
	SessionsCompleted prometheus.Counter
	AnswersSkipped    prometheus.Counter
	AnswersEdited     prometheus.Counter
	SnapshotsCreated  prometheus.Counter

	// Memory metrics
	MemoryOperations *prometheus.CounterVec

	// Generation backend metrics
	GenerationSeconds prometheus.Histogram
	BreakerState      prometheus.Gauge
}

// Turn outcome label values.
const (
	TurnOutcomeQuestion = "question"
	TurnOutcomeFollowup = "followup"
	TurnOutcomeComplete = "complete"
	TurnOutcomeError    = "error"
)

// Memory outcome label values.
const (
	MemoryOutcomeOK    = "ok"
	MemoryOutcomeError = "error"
)

// NewCollector creates a metrics collector with its own registry.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	turnsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interview_turns_total",
			Help:      "Total number of processed answer turns by outcome",
		},
		[]string{"outcome"},
	)

	fallbacksTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interview_fallbacks_total",
			Help:      "Total number of template fallbacks by failure reason",
		},
		[]string{"reason"},
	)

	sessionsStarted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interview_sessions_started_total",
			Help:      "Total number of interview sessions started",
		},
	)

	sessionsCompleted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interview_sessions_completed_total",
			Help:      "Total number of interview sessions that reached COMPLETE",
		},
	)

	answersSkipped := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interview_answers_skipped_total",
			Help:      "Total number of skipped questions",
		},
	)

	answersEdited := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interview_answers_edited_total",
			Help:      "Total number of edited answers",
		},
	)

	snapshotsCreated := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interview_snapshots_created_total",
			Help:      "Total number of session snapshots created",
		},
	)

	memoryOperations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_operations_total",
			Help:      "Total number of memory store operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	generationSeconds := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_request_seconds",
			Help:      "Question generation backend request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	breakerState := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "generation_breaker_state",
			Help:      "Generation circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
	)

	registry.MustRegister(
		httpRequests,
		httpDuration,
		turnsTotal,
		fallbacksTotal,
		sessionsStarted,
		sessionsCompleted,
		answersSkipped,
		answersEdited,
		snapshotsCreated,
		memoryOperations,
		generationSeconds,
		breakerState,
	)

	return &Collector{
		registry:          registry,
		HTTPRequests:      httpRequests,
		HTTPDuration:      httpDuration,
		TurnsTotal:        turnsTotal,
		FallbacksTotal:    fallbacksTotal,
		SessionsStarted:   sessionsStarted,
		SessionsCompleted: sessionsCompleted,
		AnswersSkipped:    answersSkipped,
		AnswersEdited:     answersEdited,
		SnapshotsCreated:  snapshotsCreated,
		MemoryOperations:  memoryOperations,
		GenerationSeconds: generationSeconds,
		BreakerState:      breakerState,
	}
}

// ObserveTurn records one processed turn.
func (c *Collector) ObserveTurn(outcome string) {
	c.TurnsTotal.WithLabelValues(outcome).Inc()
}

// ObserveFallback records one template fallback.
func (c *Collector) ObserveFallback(reason string) {
	c.FallbacksTotal.WithLabelValues(reason).Inc()
}

// ObserveMemoryOp records one memory store operation.
func (c *Collector) ObserveMemoryOp(operation string, err error) {
	outcome := MemoryOutcomeOK
	if err != nil {
		outcome = MemoryOutcomeError
	}
	c.MemoryOperations.WithLabelValues(operation, outcome).Inc()
}

// ObserveGeneration records one backend generation round trip.
func (c *Collector) ObserveGeneration(d time.Duration) {
	c.GenerationSeconds.Observe(d.Seconds())
}

// Registry returns the Prometheus registry for this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
