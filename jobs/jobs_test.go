package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/monstter/backoffice/internal/jobs"
	"github.com/monstter/backoffice/internal/platform/mail"
	"github.com/monstter/backoffice/internal/schedules"
)

type recordingSender struct {
	sent []mail.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg mail.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

type stubDispatcher struct {
	calls []time.Time
	res   schedules.DispatchResult
	err   error
}

func (d *stubDispatcher) ProcessDue(_ context.Context, now time.Time) (schedules.DispatchResult, error) {
	d.calls = append(d.calls, now)
	return d.res, d.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSendEmailJobDeliversPayload(t *testing.T) {
	sender := &recordingSender{}
	job := &SendEmailJob{Sender: sender, Logger: quietLogger()}

	task, err := NewSendEmailTask(SendEmailPayload{To: "ana@example.com", Subject: "Nova OS", HTML: "<p>oi</p>"})
	require.NoError(t, err)
	require.Equal(t, TaskTypeSendEmail, task.Type())

	require.NoError(t, job.Handle(context.Background(), task))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, mail.Message{To: "ana@example.com", Subject: "Nova OS", HTML: "<p>oi</p>"}, sender.sent[0])
}

func TestSendEmailJobSkipsRetryOnBadPayload(t *testing.T) {
	job := &SendEmailJob{Sender: &recordingSender{}, Logger: quietLogger()}

	err := job.Handle(context.Background(), asynq.NewTask(TaskTypeSendEmail, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	payload, _ := json.Marshal(SendEmailPayload{Subject: "x"})
	err = job.Handle(context.Background(), asynq.NewTask(TaskTypeSendEmail, payload))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestSendEmailJobRetriesSenderFailure(t *testing.T) {
	boom := errors.New("smtp down")
	job := &SendEmailJob{Sender: &recordingSender{err: boom}, Logger: quietLogger()}
	task, err := NewSendEmailTask(SendEmailPayload{To: "ana@example.com", Subject: "x", Text: "y"})
	require.NoError(t, err)

	err = job.Handle(context.Background(), task)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestReportsDispatchJobUsesClock(t *testing.T) {
	tick := time.Date(2025, 10, 6, 9, 0, 0, 0, time.UTC)
	dispatcher := &stubDispatcher{res: schedules.DispatchResult{Due: 2, Sent: 1, Failed: 1}}
	job := NewReportsDispatchJob(dispatcher, quietLogger(), jobmetrics.NewMetrics(prometheus.NewRegistry()))
	job.clock = func() time.Time { return tick }

	require.NoError(t, job.Handle(context.Background(), NewReportsDispatchTask()))
	require.Equal(t, []time.Time{tick}, dispatcher.calls)
}

func TestReportsDispatchJobMatchesProcessingMinute(t *testing.T) {
	late := time.Date(2025, 10, 6, 9, 1, 5, 0, time.UTC)
	dispatcher := &stubDispatcher{}
	job := NewReportsDispatchJob(dispatcher, quietLogger(), jobmetrics.NewMetrics(prometheus.NewRegistry()))
	job.clock = func() time.Time { return late }

	// a 09:00 tick delayed in the queue dispatches for 09:01
	require.NoError(t, job.Handle(context.Background(), NewReportsDispatchTask()))
	require.Equal(t, []time.Time{late}, dispatcher.calls)
}

func TestReportsDispatchJobDoesNotRetryListFailure(t *testing.T) {
	dispatcher := &stubDispatcher{err: errors.New("db gone")}
	job := NewReportsDispatchJob(dispatcher, quietLogger(), jobmetrics.NewMetrics(prometheus.NewRegistry()))

	err := job.Handle(context.Background(), NewReportsDispatchTask())
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)

	var unset *ReportsDispatchJob
	assert.Error(t, unset.Handle(context.Background(), NewReportsDispatchTask()))
}

func TestReportsDispatchCronRunsEveryMinute(t *testing.T) {
	cron := ReportsDispatchCron()
	assert.Equal(t, "* * * * *", cron.Spec)
	assert.Equal(t, TaskReportsDispatch, cron.Task.Type())
	assert.Len(t, cron.Options, 4)
}

func TestHealthWithoutInspector(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(nil, quietLogger()).MountRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body queueHealth
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, QueueDefault, body.Queue)
	assert.Zero(t, body.Pending)
}
