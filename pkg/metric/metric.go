// Package metric exposes watcher counters to prometheus.
package metric

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Evaluation results
const (
	ResultHealthy      = "healthy"
	ResultLiquidatable = "liquidatable"
	ResultError        = "error"
)

// Event kinds seen by the listener
const (
	EventHealthPulse = "health_pulse"
	EventDuplicate   = "duplicate"
	EventFailedTx    = "failed_tx"
	EventMalformed   = "malformed"
)

// Metrics watcher metrics
type Metrics struct {
	evaluations  *prometheus.CounterVec
	duration     prometheus.Histogram
	liquidatable prometheus.Counter
	events       *prometheus.CounterVec
}

var (
	once     sync.Once
	registry *Metrics
)

// Default metrics registered with the default prometheus registerer
func Default() *Metrics {
	once.Do(func() {
		registry = New(prometheus.DefaultRegisterer)
	})
	return registry
}

// New metrics registered with r
func New(r prometheus.Registerer) *Metrics {
	m := &Metrics{
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mrgn",
			Subsystem: "health",
			Name:      "evaluations_total",
			Help:      "Account health evaluations by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mrgn",
			Subsystem: "health",
			Name:      "evaluation_seconds",
			Help:      "Time to fetch and evaluate one account.",
			Buckets:   prometheus.DefBuckets,
		}),
		liquidatable: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mrgn",
			Name:      "liquidatable_accounts_total",
			Help:      "Evaluations that found the account below maintenance.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mrgn",
			Name:      "events_total",
			Help:      "Program log events seen by the listener.",
		}, []string{"kind"}),
	}

	r.MustRegister(m.evaluations, m.duration, m.liquidatable, m.events)
	return m
}

// ObserveEvaluation records one evaluation. liquidatable is ignored when err is set.
func (m *Metrics) ObserveEvaluation(start time.Time, liquidatable bool, err error) {
	if m == nil {
		return
	}

	m.duration.Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		m.evaluations.WithLabelValues(ResultError).Inc()
	case liquidatable:
		m.evaluations.WithLabelValues(ResultLiquidatable).Inc()
		m.liquidatable.Inc()
	default:
		m.evaluations.WithLabelValues(ResultHealthy).Inc()
	}
}

// Event counts one listener event
func (m *Metrics) Event(kind string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(kind).Inc()
}
