// Package metrics exposes Prometheus counters for document edits.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cmusatyalab/OpenWorkflow/pkg/domain"
)

const namespace = "openworkflow"

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics holds the collectors. Register them with Register or MustRegister.
type Metrics struct {
	Edits       *prometheus.CounterVec
	Imports     *prometheus.CounterVec
	Exports     *prometheus.CounterVec
	ExportBytes prometheus.Histogram
}

// New creates unregistered collectors.
func New() *Metrics {
	return &Metrics{
		Edits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edits_total",
			Help:      "Document edits by event type and outcome.",
		}, []string{"type", "outcome"}),
		Imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imports_total",
			Help:      "Decoded .pbfsm documents by outcome.",
		}, []string{"outcome"}),
		Exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Encoded .pbfsm documents by outcome.",
		}, []string{"outcome"}),
		ExportBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "export_size_bytes",
			Help:      "Size of encoded documents.",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
		}),
	}
}

// Collectors lists every collector.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.Edits, m.Imports, m.Exports, m.ExportBytes}
}

// Register registers the collectors with r.
func (m *Metrics) Register(r prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Hooks returns editor hooks feeding the collectors.
func (m *Metrics) Hooks() domain.Hooks {
	return domain.Hooks{
		OnEdit: func(e *domain.EditEvent) {
			m.Edits.WithLabelValues(string(e.Type), outcome(e.Err)).Inc()
		},
		OnImport: func(e *domain.EditEvent) {
			m.Imports.WithLabelValues(outcome(e.Err)).Inc()
		},
		OnExport: func(e *domain.EditEvent) {
			m.Exports.WithLabelValues(outcome(e.Err)).Inc()
			if e.Err == nil {
				m.ExportBytes.Observe(float64(e.Bytes))
			}
		},
	}
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
