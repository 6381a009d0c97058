// Package jobmetrics instruments the VaNi worker handlers.
package jobmetrics

import (
	"errors"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
)

// Run outcomes recorded in the status label.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusSkipped = "skipped"
)

// Metrics holds the worker collectors.
type Metrics struct {
	runs     *prometheus.CounterVec
	inflight *prometheus.GaugeVec
	duration *prometheus.HistogramVec
}

var (
	sharedOnce sync.Once
	shared     *Metrics
)

// NewMetrics registers the collectors on reg. A nil reg shares one instance
// registered on the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg != nil {
		return register(reg)
	}
	sharedOnce.Do(func() { shared = register(prometheus.DefaultRegisterer) })
	return shared
}

// Start marks a run of task as in flight. The returned func records the
// outcome and hands err back unchanged. A nil receiver records nothing.
func (m *Metrics) Start(task string) func(error) error {
	if m == nil {
		return func(err error) error { return err }
	}
	began := time.Now()
	m.inflight.WithLabelValues(task).Inc()
	return func(err error) error {
		m.inflight.WithLabelValues(task).Dec()
		m.runs.WithLabelValues(task, Status(err)).Inc()
		m.duration.WithLabelValues(task).Observe(time.Since(began).Seconds())
		return err
	}
}

// Status classifies a handler result. asynq.SkipRetry marks a payload the
// worker discarded.
func Status(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, asynq.SkipRetry):
		return StatusSkipped
	default:
		return StatusFailure
	}
}

func register(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contractnest",
			Subsystem: "worker",
			Name:      "task_runs_total",
			Help:      "Handled worker tasks by task type and outcome.",
		}, []string{"task", "status"}),
		inflight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "contractnest",
			Subsystem: "worker",
			Name:      "tasks_in_flight",
			Help:      "Worker tasks currently being handled.",
		}, []string{"task"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "contractnest",
			Subsystem: "worker",
			Name:      "task_duration_seconds",
			Help:      "Handler latency by task type.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"task"}),
	}
	reg.MustRegister(m.runs, m.inflight, m.duration)
	return m
}
