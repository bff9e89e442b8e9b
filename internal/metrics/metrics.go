// Package metrics holds the Prometheus collectors for the flashcard service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Paths a document can take through processing.
const (
	PathModel    = "model"
	PathFallback = "fallback"
	PathCached   = "cached"
)

// Metrics bundles the collectors on a private registry so tests and
// multiple servers never collide on registration.
type Metrics struct {
	Registry *prometheus.Registry

	Documents          *prometheus.CounterVec
	Flashcards         prometheus.Counter
	ModelFailures      *prometheus.CounterVec
	ExtractionFailures *prometheus.CounterVec
	ProcessDuration    *prometheus.HistogramVec
	JobsQueued         prometheus.Gauge
	BreakerOpen        prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flashcards",
			Name:      "documents_total",
			Help:      "Documents processed, by the path that produced the cards.",
		}, []string{"path"}),
		Flashcards: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flashcards",
			Name:      "cards_generated_total",
			Help:      "Flashcards returned to callers, excluding cache hits.",
		}),
		ModelFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flashcards",
			Name:      "model_failures_total",
			Help:      "Language model failures that triggered the heuristic fallback.",
		}, []string{"reason"}),
		ExtractionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flashcards",
			Name:      "extraction_failures_total",
			Help:      "Uploads whose text could not be extracted, by format.",
		}, []string{"format"}),
		ProcessDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "flashcards",
			Name:      "process_duration_seconds",
			Help:      "Time spent per processing stage.",
			Buckets:   []float64{.005, .025, .1, .5, 1, 5, 15, 30, 60, 120},
		}, []string{"stage"}),
		JobsQueued: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "flashcards",
			Name:      "jobs_queued",
			Help:      "Async jobs waiting for a worker.",
		}),
		BreakerOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "flashcards",
			Name:      "model_breaker_open",
			Help:      "1 while the model circuit breaker is open.",
		}),
	}
	m.Registry.MustRegister(
		m.Documents,
		m.Flashcards,
		m.ModelFailures,
		m.ExtractionFailures,
		m.ProcessDuration,
		m.JobsQueued,
		m.BreakerOpen,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// ObserveStage records d seconds for stage.
func (m *Metrics) ObserveStage(stage string, seconds float64) {
	m.ProcessDuration.WithLabelValues(stage).Observe(seconds)
}

// SetBreakerState tracks the breaker gauge from a gobreaker state name.
func (m *Metrics) SetBreakerState(state string) {
	if state == "open" {
		m.BreakerOpen.Set(1)
		return
	}
	m.BreakerOpen.Set(0)
}
