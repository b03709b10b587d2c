// Package metrics exposes Prometheus collectors for generation runs.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"subgen/internal/generate"
)

const namespace = "subgen"

// Run outcome labels.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

// Metrics holds the collectors and the registry they are registered on.
type Metrics struct {
	RunsTotal    *prometheus.CounterVec
	RunsActive   prometheus.Gauge
	RunDuration  prometheus.Histogram
	Blocks       prometheus.Counter
	LinesDropped prometheus.Counter

	EventsPublished *prometheus.CounterVec
	PublishLatency  prometheus.Histogram

	registry *prometheus.Registry

	mu     sync.Mutex
	active string
}

// New registers every collector on a private registry, plus the Go runtime
// and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Generation runs by outcome",
		}, []string{"outcome"}),
		RunsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "runs_active",
			Help:      "Generation runs currently in flight",
		}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of finished generation runs",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1200},
		}),
		Blocks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_total",
			Help:      "Subtitle blocks accepted from the model stream",
		}),
		LinesDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_dropped_total",
			Help:      "Stream lines discarded as unparseable or incomplete",
		}),
		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Events handed to the publisher by type and result",
		}, []string{"type", "result"}),
		PublishLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "event_publish_seconds",
			Help:      "Time spent handing an event to the publisher",
			Buckets:   prometheus.DefBuckets,
		}),
		registry: reg,
	}
}

// Registry returns the registry backing the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordPublish counts one publish attempt.
func (m *Metrics) RecordPublish(eventType string, err error, seconds float64) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.EventsPublished.WithLabelValues(eventType, result).Inc()
	m.PublishLatency.Observe(seconds)
}

// Observe implements generate.Observer.
func (m *Metrics) Observe(evt generate.Event) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	switch evt.Kind {
	case generate.EventBlock:
		m.Blocks.Inc()
	case generate.EventReset:
		m.cancelActive()
	case generate.EventPhase:
		st := evt.State
		switch st.Phase {
		case generate.PhasePreparing:
			if m.active != "" && m.active != evt.RunID {
				m.cancelActive()
			}
			m.active = evt.RunID
			m.RunsActive.Inc()
		case generate.PhaseSuccess, generate.PhaseError:
			outcome := OutcomeSucceeded
			if st.Phase == generate.PhaseError {
				outcome = OutcomeFailed
			}
			m.RunsTotal.WithLabelValues(outcome).Inc()
			m.LinesDropped.Add(float64(st.Dropped))
			m.RunDuration.Observe(st.Duration().Seconds())
			if m.active == evt.RunID {
				m.active = ""
				m.RunsActive.Dec()
			}
		}
	}
}

func (m *Metrics) cancelActive() {
	if m.active == "" {
		return
	}
	m.RunsTotal.WithLabelValues(OutcomeCancelled).Inc()
	m.RunsActive.Dec()
	m.active = ""
}
