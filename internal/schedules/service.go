package schedules

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/monstter/backoffice/internal/financial"
	"github.com/monstter/backoffice/internal/platform/mail"
	"github.com/monstter/backoffice/internal/servicereports/export"
	"github.com/monstter/backoffice/internal/shared"
)

// reportWindowDays is the trailing window summarised by every scheduled report.
const reportWindowDays = 30

// Summarizer aggregates closed orders.
type Summarizer interface {
	Summarize(ctx context.Context, filter financial.Filter) (financial.Summary, error)
}

// Service manages schedules and delivers the due ones.
type Service struct {
	repo    Repository
	summary Summarizer
	sender  mail.Sender
	logger  *slog.Logger
	loc     *time.Location
}

// DispatchResult counts what one ProcessDue pass did.
type DispatchResult struct {
	Due     int
	Sent    int
	Skipped int
	Failed  int
}

// NewService wires the schedule repository with the aggregation and mail senders.
func NewService(repo Repository, summary Summarizer, sender mail.Sender, logger *slog.Logger, loc *time.Location) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, summary: summary, sender: sender, logger: logger.With("module", "schedules"), loc: loc}
}

// Get returns a single schedule.
func (s *Service) Get(ctx context.Context, id int64) (Schedule, error) {
	return s.repo.Get(ctx, id)
}

// List returns schedules, optionally by status.
func (s *Service) List(ctx context.Context, status Status) ([]Schedule, error) {
	return s.repo.List(ctx, status)
}

// Create stores a schedule owned by userID.
func (s *Service) Create(ctx context.Context, userID int64, in Input) (Schedule, error) {
	in, err := normalize(in)
	if err != nil {
		return Schedule{}, err
	}
	return s.repo.Create(ctx, userID, in)
}

// Update replaces the writable fields of a schedule.
func (s *Service) Update(ctx context.Context, id int64, in Input) (Schedule, error) {
	in, err := normalize(in)
	if err != nil {
		return Schedule{}, err
	}
	return s.repo.Update(ctx, id, in)
}

// Delete removes a schedule.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// ProcessDue delivers every active schedule due at now. A schedule is stamped with
// last_sent_at only after its email went out, and one already stamped in this minute
// is skipped. Minutes that were never processed are not caught up.
func (s *Service) ProcessDue(ctx context.Context, now time.Time) (DispatchResult, error) {
	var res DispatchResult
	active, err := s.repo.List(ctx, StatusActive)
	if err != nil {
		return res, fmt.Errorf("schedules: list active: %w", err)
	}
	for _, sched := range active {
		if !sched.Due(now, s.loc) {
			continue
		}
		res.Due++
		if sched.SentInMinute(now) {
			res.Skipped++
			continue
		}
		if err := s.deliver(ctx, sched, now); err != nil {
			res.Failed++
			s.logger.ErrorContext(ctx, "deliver scheduled report",
				slog.Int64("schedule_id", sched.ID), slog.String("recipient", sched.RecipientEmail), slog.Any("error", err))
			continue
		}
		if err := s.repo.MarkSent(ctx, sched.ID, now); err != nil {
			res.Failed++
			s.logger.ErrorContext(ctx, "stamp schedule", slog.Int64("schedule_id", sched.ID), slog.Any("error", err))
			continue
		}
		res.Sent++
	}
	return res, nil
}

func (s *Service) deliver(ctx context.Context, sched Schedule, now time.Time) error {
	window := shared.TrailingDays(now.In(s.loc), reportWindowDays)
	summary, err := s.summary.Summarize(ctx, financial.Filter{Start: window.Start, End: window.End})
	if err != nil {
		return err
	}
	body, err := export.FinancialSummaryEmail(summary, window)
	if err != nil {
		return err
	}
	return s.sender.Send(ctx, mail.Message{
		To:      sched.RecipientEmail,
		Subject: export.FinancialSummarySubject(window),
		HTML:    body,
	})
}

func normalize(in Input) (Input, error) {
	t, err := time.Parse(timeLayout, in.Time)
	if err != nil {
		return in, fmt.Errorf("%w: time must be HH:MM", shared.ErrValidation)
	}
	in.Time = t.Format(timeLayout)
	switch in.Frequency {
	case FrequencyWeekly:
		if in.DayOfWeek == nil {
			return in, fmt.Errorf("%w: dayOfWeek required for weekly schedules", shared.ErrValidation)
		}
	case FrequencyBiweekly, FrequencyMonthly:
		if in.DayOfMonth == nil {
			return in, fmt.Errorf("%w: dayOfMonth required for %s schedules", shared.ErrValidation, in.Frequency)
		}
	}
	if in.ReportType == "" {
		in.ReportType = ReportFinancial
	}
	if in.Status == "" {
		in.Status = StatusActive
	}
	if in.IncludeCharts == nil {
		yes := true
		in.IncludeCharts = &yes
	}
	return in, nil
}
