package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/monstter/backoffice/internal/jobs"
	"github.com/monstter/backoffice/internal/schedules"
)

// ReportDispatcher runs the schedule delivery pass.
type ReportDispatcher interface {
	ProcessDue(ctx context.Context, now time.Time) (schedules.DispatchResult, error)
}

// ReportsDispatchJob delivers scheduled financial reports once per minute.
type ReportsDispatchJob struct {
	Dispatcher ReportDispatcher
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
	clock      func() time.Time
}

// NewReportsDispatchJob constructs the job.
func NewReportsDispatchJob(dispatcher ReportDispatcher, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReportsDispatchJob {
	return &ReportsDispatchJob{Dispatcher: dispatcher, Logger: logger, Metrics: metrics, clock: time.Now}
}

// Handle executes one dispatch pass. Per-schedule failures are logged and counted
// but do not fail the task; the task is never retried since a retry lands in a
// different minute.
//
// Schedules are matched against the minute the task is processed in, not the minute
// the cron tick fired: the scheduler registers a fixed payload, so the tick time cannot
// travel with the task. A tick that waits in the queue past its minute therefore
// dispatches the later minute's schedules and the earlier minute is not caught up.
func (j *ReportsDispatchJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Dispatcher == nil {
		return errors.New("reports dispatch job not configured")
	}
	now := j.now()
	res, err := j.Dispatcher.ProcessDue(ctx, now)
	if err != nil {
		j.logger().ErrorContext(ctx, "reports dispatch failed", slog.Any("error", err))
		return errors.Join(err, asynq.SkipRetry)
	}
	j.metrics().AddReports("sent", res.Sent)
	j.metrics().AddReports("skipped", res.Skipped)
	j.metrics().AddReports("failed", res.Failed)
	if res.Due > 0 {
		j.logger().InfoContext(ctx, "reports dispatched",
			slog.Time("tick", now),
			slog.Int("due", res.Due),
			slog.Int("sent", res.Sent),
			slog.Int("skipped", res.Skipped),
			slog.Int("failed", res.Failed))
	}
	return nil
}

func (j *ReportsDispatchJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return jobmetrics.NewMetrics(nil)
}

func (j *ReportsDispatchJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *ReportsDispatchJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now()
}
