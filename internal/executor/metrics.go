package executor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the executor's Prometheus collectors.
type Metrics struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	written  prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "algogrid_unit_runs_total",
				Help: "Number of unit invocations by outcome.",
			},
			[]string{"unit", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "algogrid_unit_duration_seconds",
				Help:    "Wall time spent in a unit's Run.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"unit"},
		),
		written: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "algogrid_elements_written_total",
			Help: "Number of elements written to the data store by units.",
		}),
	}
	reg.MustRegister(m.runs, m.duration, m.written)
	return m
}

func (m *Metrics) observe(unit string, took time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.runs.WithLabelValues(unit, status).Inc()
	m.duration.WithLabelValues(unit).Observe(took.Seconds())
}

func (m *Metrics) wrote(n int) {
	if m == nil {
		return
	}
	m.written.Add(float64(n))
}
