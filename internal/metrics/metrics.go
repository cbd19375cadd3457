// Package metrics exposes the pool's Prometheus instrumentation: per-family
// entry-state gauges, probe latency, and save-flush counters, so an operator
// can graph the same state the CLI's status view prints.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry bundles every collector the pool registers. Callers construct
// one with NewRegistry and register it with prometheus.DefaultRegisterer
// (or their own registry in tests).
type Registry struct {
	EntryState    *prometheus.GaugeVec
	ProbeDuration *prometheus.HistogramVec
	ProbeTotal    *prometheus.CounterVec
	SaveFlushes   prometheus.Counter
}

// NewRegistry constructs the collectors. namespace is the metric name
// prefix, e.g. "providerpool".
func NewRegistry(namespace string) *Registry {
	return &Registry{
		EntryState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "entries",
			Help:      "Number of provider entries by family and state.",
		}, []string{"family", "state"}),
		ProbeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "probe_duration_seconds",
			Help:      "Health probe latency by family and outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"family", "outcome"}),
		ProbeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probes_total",
			Help:      "Total health probes run by family and outcome.",
		}, []string{"family", "outcome"}),
		SaveFlushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_flushes_total",
			Help:      "Total debounced persistence flushes written to disk.",
		}),
	}
}

// MustRegister registers every collector against reg.
func (r *Registry) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(r.EntryState, r.ProbeDuration, r.ProbeTotal, r.SaveFlushes)
}

// ObserveProbe records a probe's outcome and latency.
func (r *Registry) ObserveProbe(family string, success bool, start time.Time) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	r.ProbeTotal.WithLabelValues(family, outcome).Inc()
	r.ProbeDuration.WithLabelValues(family, outcome).Observe(time.Since(start).Seconds())
}

// SetEntryCounts overwrites the gauge for one family's healthy/unhealthy/
// disabled counts, replacing whatever was previously recorded for it.
func (r *Registry) SetEntryCounts(family string, healthy, unhealthy, disabled int) {
	r.EntryState.WithLabelValues(family, "healthy").Set(float64(healthy))
	r.EntryState.WithLabelValues(family, "unhealthy").Set(float64(unhealthy))
	r.EntryState.WithLabelValues(family, "disabled").Set(float64(disabled))
}
