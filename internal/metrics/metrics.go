// Package metrics exposes supervisor activity to Prometheus.
package metrics

import (
	"math"

	"github.com/prometheus/client_golang/prometheus"

	"go-attention-agent/internal/eval"
	"go-attention-agent/internal/scheduler"
)

const metricPrefix = "supervisor_"

// Metrics bundles supervisor metrics.
type Metrics struct {
	Cycles        prometheus.Counter
	Events        prometheus.Counter
	Dropped       prometheus.Counter
	Commands      prometheus.Counter
	Dispatched    prometheus.Counter
	Duplicates    prometheus.Counter
	Truncated     prometheus.Counter
	CycleDuration prometheus.Histogram
	Scores        *prometheus.GaugeVec
}

// New constructs the metrics and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "cycles_total",
			Help: "Total completed scheduler cycles",
		}),
		Events: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "events_total",
			Help: "Total environment events polled",
		}),
		Dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "events_unclassified_total",
			Help: "Total events dropped because no category matched",
		}),
		Commands: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "commands_total",
			Help: "Total commands emitted by agents",
		}),
		Dispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "dispatched_total",
			Help: "Total events executed against the environment",
		}),
		Duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "dispatch_duplicates_total",
			Help: "Total events skipped as duplicates within a cycle",
		}),
		Truncated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "dispatch_truncated_total",
			Help: "Total cycles that hit the dispatch limit",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    metricPrefix + "cycle_duration_seconds",
			Help:    "Scheduler cycle duration in seconds",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}),
		Scores: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: metricPrefix + "score",
			Help: "Current evaluator score by dimension",
		}, []string{"dimension"}),
	}
	reg.MustRegister(
		m.Cycles,
		m.Events,
		m.Dropped,
		m.Commands,
		m.Dispatched,
		m.Duplicates,
		m.Truncated,
		m.CycleDuration,
		m.Scores,
	)
	return m
}

// ObserveCycle records one scheduler cycle.
func (m *Metrics) ObserveCycle(st scheduler.Stats) {
	m.Cycles.Inc()
	m.Events.Add(float64(st.Events))
	m.Dropped.Add(float64(st.Dropped))
	m.Commands.Add(float64(st.Commands))
	m.Dispatched.Add(float64(st.Dispatched))
	m.Duplicates.Add(float64(st.Duplicates))
	if st.Truncated {
		m.Truncated.Inc()
	}
	m.CycleDuration.Observe(st.Duration.Seconds())
}

// SetScores updates the score gauges. Dimensions without data are removed.
func (m *Metrics) SetScores(s eval.Scores) {
	for name, v := range s.Map() {
		if math.IsNaN(v) {
			m.Scores.DeleteLabelValues(name)
			continue
		}
		m.Scores.WithLabelValues(name).Set(v)
	}
}

// RegisterBacklog exposes the transport buffer through callbacks.
func RegisterBacklog(reg prometheus.Registerer, pending, overflowed func() int) {
	reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: metricPrefix + "transport_pending",
			Help: "Events buffered by the transport awaiting a poll",
		}, func() float64 { return float64(pending()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: metricPrefix + "transport_overflow_total",
			Help: "Events dropped by the transport on a full buffer",
		}, func() float64 { return float64(overflowed()) }),
	)
}

var _ scheduler.Observer = (*Metrics)(nil)
