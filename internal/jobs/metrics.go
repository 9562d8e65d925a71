// Package jobmetrics instruments asynq task handlers.
package jobmetrics

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
)

// Run outcomes. A dropped run failed and asynq will not retry it.
const (
	StatusSuccess = "success"
	StatusRetry   = "retry"
	StatusDropped = "dropped"
)

// Metrics holds the worker collectors.
type Metrics struct {
	runs     *prometheus.CounterVec
	running  *prometheus.GaugeVec
	duration *prometheus.HistogramVec
	reports  *prometheus.CounterVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the collectors on registerer, or once on the default
// registerer when it is nil.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer != nil {
		return register(registerer)
	}
	defaultOnce.Do(func() { defaultMetrics = register(prometheus.DefaultRegisterer) })
	return defaultMetrics
}

func register(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_jobs_total",
			Help: "Task runs by type and outcome.",
		}, []string{"job", "status"}),
		running: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "backoffice_jobs_running",
			Help: "Tasks currently executing.",
		}, []string{"job"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "backoffice_job_duration_seconds",
			Help:    "Task run time.",
			Buckets: []float64{0.05, 0.25, 1, 5, 15, 30, 60},
		}, []string{"job"}),
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_scheduled_reports_total",
			Help: "Scheduled report deliveries grouped by outcome.",
		}, []string{"outcome"}),
	}
	registerer.MustRegister(m.runs, m.running, m.duration, m.reports)
	return m
}

// Middleware records every task the mux serves, labelled by task type.
func (m *Metrics) Middleware(next asynq.Handler) asynq.Handler {
	if m == nil {
		return next
	}
	return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		job := t.Type()
		m.running.WithLabelValues(job).Inc()
		start := time.Now()

		err := next.ProcessTask(ctx, t)

		m.running.WithLabelValues(job).Dec()
		m.duration.WithLabelValues(job).Observe(time.Since(start).Seconds())
		m.runs.WithLabelValues(job, Status(ctx, err)).Inc()
		return err
	})
}

// Status classifies a handler result. Retries are exhausted when the retry
// count in ctx has reached the task's max retry.
func Status(ctx context.Context, err error) string {
	if err == nil {
		return StatusSuccess
	}
	if errors.Is(err, asynq.SkipRetry) {
		return StatusDropped
	}
	retried, ok1 := asynq.GetRetryCount(ctx)
	limit, ok2 := asynq.GetMaxRetry(ctx)
	if ok1 && ok2 && retried >= limit {
		return StatusDropped
	}
	return StatusRetry
}

// AddReports counts scheduled report deliveries by outcome (sent, skipped, failed).
func (m *Metrics) AddReports(outcome string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.reports.WithLabelValues(outcome).Add(float64(count))
}
