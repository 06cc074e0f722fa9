// Package metrics exposes reasoning-loop and tool-call counters. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	StatusOK    = "ok"
	StatusError = "error"
)

type Metrics struct {
	registry   *prometheus.Registry
	runs       *prometheus.CounterVec
	iterations prometheus.Histogram
	toolCalls  *prometheus.CounterVec
}

// New registers the collectors on registry. A nil registry gives a nil
// *Metrics, which turns every method into a no-op.
func New(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		return nil
	}

	m := &Metrics{
		registry: registry,
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "planit_react_runs_total",
				Help: "Reasoning loop runs by outcome",
			},
			[]string{"outcome"},
		),
		iterations: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "planit_react_iterations",
				Help:    "Iterations used per reasoning loop run",
				Buckets: prometheus.LinearBuckets(1, 1, 10),
			},
		),
		toolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "planit_tool_calls_total",
				Help: "Tool dispatches by tool name and status",
			},
			[]string{"tool", "status"},
		),
	}

	registry.MustRegister(m.runs, m.iterations, m.toolCalls)
	return m
}

// ObserveRun records one finished loop run.
func (m *Metrics) ObserveRun(outcome string, iterations int) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(outcome).Inc()
	m.iterations.Observe(float64(iterations))
}

// ObserveToolCall records one tool dispatch.
func (m *Metrics) ObserveToolCall(tool string, failed bool) {
	if m == nil {
		return
	}
	status := StatusOK
	if failed {
		status = StatusError
	}
	m.toolCalls.WithLabelValues(tool, status).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
