package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/monstter/backoffice/internal/platform/mail"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskReportsDispatch delivers the report schedules due in the current minute.
	TaskReportsDispatch = "reports:dispatch"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html,omitempty"`
	Text    string `json:"text,omitempty"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data, asynq.MaxRetry(5)), nil
}

// NewReportsDispatchTask constructs the per-minute dispatch task.
func NewReportsDispatchTask() *asynq.Task {
	return asynq.NewTask(TaskReportsDispatch, nil)
}

// SendEmailJob relays queued messages to the configured sender.
type SendEmailJob struct {
	Sender mail.Sender
	Logger *slog.Logger
}

// Handle processes TaskTypeSendEmail tasks. Malformed payloads are not retried.
func (j *SendEmailJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode %s payload: %v: %w", TaskTypeSendEmail, err, asynq.SkipRetry)
	}
	if payload.To == "" {
		return fmt.Errorf("%s: empty recipient: %w", TaskTypeSendEmail, asynq.SkipRetry)
	}
	if j.Sender == nil {
		return fmt.Errorf("%s: sender not configured", TaskTypeSendEmail)
	}
	err := j.Sender.Send(ctx, mail.Message{
		To:      payload.To,
		Subject: payload.Subject,
		HTML:    payload.HTML,
		Text:    payload.Text,
	})
	if err != nil {
		j.logger().WarnContext(ctx, "send email", slog.String("to", payload.To), slog.Any("error", err))
		return err
	}
	j.logger().InfoContext(ctx, "email sent", slog.String("to", payload.To), slog.String("subject", payload.Subject))
	return nil
}

func (j *SendEmailJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
