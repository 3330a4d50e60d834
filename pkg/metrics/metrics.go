// Package metrics exposes Prometheus instrumentation for the workflow API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the counters the workflow API reports.
type Metrics struct {
	// WorkflowsCreated counts workflows that passed validation and were
	// persisted.
	WorkflowsCreated prometheus.Counter

	// ValidationFailures counts reported violations, labeled by violation
	// code. A single request can add several increments.
	ValidationFailures *prometheus.CounterVec

	// ShapeRejections counts requests rejected before validation because the
	// body was not a well-formed workflow document.
	ShapeRejections prometheus.Counter
}

// New creates the workflow metrics and registers them on registerer.
func New(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		WorkflowsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lensflow_workflows_created_total",
			Help: "Total number of workflows created",
		}),
		ValidationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lensflow_workflow_validation_failures_total",
			Help: "Total number of workflow validation violations by code",
		}, []string{"code"}),
		ShapeRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lensflow_workflow_shape_rejections_total",
			Help: "Total number of requests rejected for malformed workflow documents",
		}),
	}

	registerer.MustRegister(m.WorkflowsCreated, m.ValidationFailures, m.ShapeRejections)

	return m
}
