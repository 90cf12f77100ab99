package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the service-level metrics shared across components.
type Metrics struct {
	// API surface
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Pipeline
	PipelineRuns         *prometheus.CounterVec
	PipelineStepDuration *prometheus.HistogramVec

	// LLM usage
	LLMCalls      *prometheus.CounterVec
	LLMCallErrors *prometheus.CounterVec

	// Guppy execution
	GuppyQueries       *prometheus.CounterVec
	GuppyQueryDuration prometheus.Histogram
}

// NewMetrics creates a new Metrics instance with all service metrics
func NewMetrics() *Metrics {
	return &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cohort_chatbot",
				Subsystem: "api",
				Name:      "requests_total",
				Help:      "Total number of API requests",
			},
			[]string{"route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "cohort_chatbot",
				Subsystem: "api",
				Name:      "request_duration_seconds",
				Help:      "API request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		PipelineRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cohort_chatbot",
				Subsystem: "pipeline",
				Name:      "runs_total",
				Help:      "Total number of pipeline runs by outcome",
			},
			[]string{"status"},
		),
		PipelineStepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "cohort_chatbot",
				Subsystem: "pipeline",
				Name:      "step_duration_seconds",
				Help:      "Duration of each pipeline step in seconds",
				Buckets:   []float64{.005, .01, .05, .1, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"step"},
		),
		LLMCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cohort_chatbot",
				Subsystem: "llm",
				Name:      "calls_total",
				Help:      "Total number of LLM completions requested",
			},
			[]string{"purpose"},
		),
		LLMCallErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cohort_chatbot",
				Subsystem: "llm",
				Name:      "call_errors_total",
				Help:      "Total number of failed LLM completions",
			},
			[]string{"purpose"},
		),
		GuppyQueries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cohort_chatbot",
				Subsystem: "guppy",
				Name:      "queries_total",
				Help:      "Total number of GraphQL queries sent to Guppy",
			},
			[]string{"kind", "status"},
		),
		GuppyQueryDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "cohort_chatbot",
				Subsystem: "guppy",
				Name:      "query_duration_seconds",
				Help:      "Guppy query round-trip duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}
}

// ObserveStep records the duration of one pipeline step.
func (m *Metrics) ObserveStep(step string, d time.Duration) {
	m.PipelineStepDuration.WithLabelValues(step).Observe(d.Seconds())
}

// collectors returns every core metric for bulk registration.
func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RequestsTotal,
		m.RequestDuration,
		m.PipelineRuns,
		m.PipelineStepDuration,
		m.LLMCalls,
		m.LLMCallErrors,
		m.GuppyQueries,
		m.GuppyQueryDuration,
	}
}
