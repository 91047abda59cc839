// Package metrics exposes Prometheus counters for the entry workflow.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "packweigh"

// SessionCounter reports how many sessions are live.
type SessionCounter interface {
	Len() int
}

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry       *prometheus.Registry
	committed      prometheus.Counter
	rejected       prometheus.Counter
	mirrorFailures *prometheus.CounterVec
}

// New registers the workflow collectors plus Go runtime and process collectors.
func New(sessions SessionCounter) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		committed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_committed_total",
			Help:      "Entries appended to a result table.",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "confirm_rejected_total",
			Help:      "Confirm attempts rejected for a missing barcode or drug name.",
		}),
		mirrorFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mirror_failures_total",
			Help:      "Committed entries a mirror failed to store.",
		}, []string{"mirror"}),
	}

	m.registry.MustRegister(
		m.committed,
		m.rejected,
		m.mirrorFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if sessions != nil {
		m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Sessions currently held in memory.",
		}, func() float64 { return float64(sessions.Len()) }))
	}
	return m
}

// Committed records a successful commit.
func (m *Metrics) Committed() { m.committed.Inc() }

// Rejected records a confirm refused for a missing identifier.
func (m *Metrics) Rejected() { m.rejected.Inc() }

// MirrorFailed records a mirror write failure.
func (m *Metrics) MirrorFailed(mirror string) { m.mirrorFailures.WithLabelValues(mirror).Inc() }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
