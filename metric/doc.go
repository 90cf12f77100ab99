// Package metric provides the Prometheus metrics registry for the cohort
// discovery backend.
//
// A single MetricsRegistry is created at startup and shared across
// components. Core service metrics (API requests, pipeline step durations,
// LLM call counts, Guppy query timings) are pre-registered and reachable via
// CoreMetrics; components with their own collectors register them under a
// namespaced key with Register so duplicates are caught at wiring time.
//
// The registry's Handler is mounted by the HTTP gateway at /metrics.
package metric
