// Package observability exposes Prometheus metrics for a validator node.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the node's instruments on a private registry so tests can
// create as many instances as they like.
type Metrics struct {
	registry *prometheus.Registry

	// ProofSubmissions counts proof submissions by result (accepted,
	// rejected).
	ProofSubmissions *prometheus.CounterVec

	// Validations counts consensus checks by verdict.
	Validations *prometheus.CounterVec

	// ExecutionDuration observes agent execution time by agent type.
	ExecutionDuration *prometheus.HistogramVec
}

// New creates a metrics bundle with all instruments registered.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ProofSubmissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "korra_proof_submissions_total",
				Help: "Total proof submissions by result",
			},
			[]string{"result"},
		),
		Validations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "korra_validations_total",
				Help: "Total consensus checks by verdict",
			},
			[]string{"verdict"},
		),
		ExecutionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "korra_execution_duration_seconds",
				Help: "Duration of agent executions",
			},
			[]string{"agent_type"},
		),
	}
	m.registry.MustRegister(m.ProofSubmissions, m.Validations, m.ExecutionDuration)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
