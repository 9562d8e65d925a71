package schedules

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monstter/backoffice/internal/financial"
	"github.com/monstter/backoffice/internal/platform/mail"
	"github.com/monstter/backoffice/internal/shared"
)

func intp(v int) *int { return &v }

var brt = time.FixedZone("BRT", -3*3600)

func TestDue(t *testing.T) {
	// Wednesday 15 Oct 2025 09:30 in BRT
	now := time.Date(2025, 10, 15, 12, 30, 20, 0, time.UTC)
	cases := []struct {
		name string
		s    Schedule
		want bool
	}{
		{"daily at time", Schedule{Frequency: FrequencyDaily, Time: "09:30"}, true},
		{"daily other minute", Schedule{Frequency: FrequencyDaily, Time: "09:31"}, false},
		{"daily in utc would be 12:30", Schedule{Frequency: FrequencyDaily, Time: "12:30"}, false},
		{"weekly wednesday", Schedule{Frequency: FrequencyWeekly, DayOfWeek: intp(3), Time: "09:30"}, true},
		{"weekly monday", Schedule{Frequency: FrequencyWeekly, DayOfWeek: intp(1), Time: "09:30"}, false},
		{"weekly without day", Schedule{Frequency: FrequencyWeekly, Time: "09:30"}, false},
		{"biweekly same residue", Schedule{Frequency: FrequencyBiweekly, DayOfMonth: intp(1), Time: "09:30"}, true},
		{"biweekly exact day", Schedule{Frequency: FrequencyBiweekly, DayOfMonth: intp(15), Time: "09:30"}, true},
		{"biweekly other residue", Schedule{Frequency: FrequencyBiweekly, DayOfMonth: intp(2), Time: "09:30"}, false},
		{"monthly day 15", Schedule{Frequency: FrequencyMonthly, DayOfMonth: intp(15), Time: "09:30"}, true},
		{"monthly day 14", Schedule{Frequency: FrequencyMonthly, DayOfMonth: intp(14), Time: "09:30"}, false},
		{"inactive", Schedule{Frequency: FrequencyDaily, Time: "09:30", Status: StatusInactive}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.s.Status == "" {
				tc.s.Status = StatusActive
			}
			assert.Equal(t, tc.want, tc.s.Due(now, brt))
		})
	}
}

func TestSentInMinute(t *testing.T) {
	now := time.Date(2025, 10, 15, 12, 30, 40, 0, time.UTC)
	earlier := time.Date(2025, 10, 15, 12, 30, 1, 0, time.UTC)
	previous := time.Date(2025, 10, 15, 12, 29, 59, 0, time.UTC)

	assert.False(t, Schedule{}.SentInMinute(now))
	assert.True(t, Schedule{LastSentAt: &earlier}.SentInMinute(now))
	assert.False(t, Schedule{LastSentAt: &previous}.SentInMinute(now))
}

type memRepo struct {
	items   map[int64]Schedule
	nextID  int64
	listErr error
	marked  []int64
}

func newMemRepo(items ...Schedule) *memRepo {
	r := &memRepo{items: map[int64]Schedule{}}
	for _, s := range items {
		r.items[s.ID] = s
		if s.ID > r.nextID {
			r.nextID = s.ID
		}
	}
	return r
}

func (r *memRepo) Get(_ context.Context, id int64) (Schedule, error) {
	s, ok := r.items[id]
	if !ok {
		return Schedule{}, shared.ErrNotFound
	}
	return s, nil
}

func (r *memRepo) List(_ context.Context, status Status) ([]Schedule, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []Schedule
	for _, s := range r.items {
		if status == "" || s.Status == status {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memRepo) Create(_ context.Context, userID int64, in Input) (Schedule, error) {
	r.nextID++
	s := Schedule{
		ID: r.nextID, UserID: userID, RecipientEmail: in.RecipientEmail, Frequency: in.Frequency,
		DayOfWeek: in.DayOfWeek, DayOfMonth: in.DayOfMonth, Time: in.Time, ReportType: in.ReportType,
		IncludeCharts: *in.IncludeCharts, Status: in.Status,
	}
	r.items[s.ID] = s
	return s, nil
}

func (r *memRepo) Update(ctx context.Context, id int64, in Input) (Schedule, error) {
	s, err := r.Get(ctx, id)
	if err != nil {
		return Schedule{}, err
	}
	s.RecipientEmail, s.Frequency, s.Time, s.Status = in.RecipientEmail, in.Frequency, in.Time, in.Status
	r.items[id] = s
	return s, nil
}

func (r *memRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.items[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *memRepo) MarkSent(_ context.Context, id int64, at time.Time) error {
	s := r.items[id]
	s.LastSentAt = &at
	r.items[id] = s
	r.marked = append(r.marked, id)
	return nil
}

type stubSummarizer struct {
	filters []financial.Filter
	err     error
}

func (s *stubSummarizer) Summarize(_ context.Context, f financial.Filter) (financial.Summary, error) {
	s.filters = append(s.filters, f)
	if s.err != nil {
		return financial.Summary{}, s.err
	}
	return financial.Summary{Revenue: decimal.NewFromInt(1000), Orders: 3}, nil
}

type recordingSender struct {
	sent   []mail.Message
	failTo string
}

func (r *recordingSender) Send(_ context.Context, msg mail.Message) error {
	if msg.To == r.failTo {
		return errors.New("smtp: 550 mailbox unavailable")
	}
	r.sent = append(r.sent, msg)
	return nil
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestProcessDueSendsAndStampsOnlyOnSuccess(t *testing.T) {
	now := time.Date(2025, 10, 15, 12, 30, 5, 0, time.UTC)
	repo := newMemRepo(
		Schedule{ID: 1, RecipientEmail: "ceo@monstter.test", Frequency: FrequencyDaily, Time: "09:30", Status: StatusActive},
		Schedule{ID: 2, RecipientEmail: "bounce@monstter.test", Frequency: FrequencyDaily, Time: "09:30", Status: StatusActive},
		Schedule{ID: 3, RecipientEmail: "later@monstter.test", Frequency: FrequencyDaily, Time: "10:00", Status: StatusActive},
		Schedule{ID: 4, RecipientEmail: "off@monstter.test", Frequency: FrequencyDaily, Time: "09:30", Status: StatusInactive},
	)
	summary := &stubSummarizer{}
	sender := &recordingSender{failTo: "bounce@monstter.test"}
	svc := NewService(repo, summary, sender, quiet(), brt)

	res, err := svc.ProcessDue(t.Context(), now)
	require.NoError(t, err)
	assert.Equal(t, DispatchResult{Due: 2, Sent: 1, Failed: 1}, res)

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "ceo@monstter.test", msg.To)
	assert.Equal(t, "Relatório Financeiro - 15/09/2025 a 15/10/2025", msg.Subject)
	assert.True(t, strings.Contains(msg.HTML, "R$ 1.000,00"))

	assert.Equal(t, []int64{1}, repo.marked)
	assert.Nil(t, repo.items[2].LastSentAt)

	require.Len(t, summary.filters, 2)
	assert.Equal(t, 30*24*time.Hour, summary.filters[0].End.Sub(summary.filters[0].Start))
	assert.True(t, summary.filters[0].End.Equal(now))
}

func TestProcessDueSkipsScheduleStampedThisMinute(t *testing.T) {
	now := time.Date(2025, 10, 15, 12, 30, 50, 0, time.UTC)
	stamped := now.Add(-30 * time.Second)
	repo := newMemRepo(Schedule{ID: 1, RecipientEmail: "a@b.test", Frequency: FrequencyDaily, Time: "09:30", Status: StatusActive, LastSentAt: &stamped})
	sender := &recordingSender{}
	svc := NewService(repo, &stubSummarizer{}, sender, quiet(), brt)

	res, err := svc.ProcessDue(t.Context(), now)
	require.NoError(t, err)
	assert.Equal(t, DispatchResult{Due: 1, Skipped: 1}, res)
	assert.Empty(t, sender.sent)
}

func TestProcessDueSummaryFailureLeavesScheduleUnstamped(t *testing.T) {
	now := time.Date(2025, 10, 15, 12, 30, 0, 0, time.UTC)
	repo := newMemRepo(Schedule{ID: 1, RecipientEmail: "a@b.test", Frequency: FrequencyDaily, Time: "09:30", Status: StatusActive})
	sender := &recordingSender{}
	svc := NewService(repo, &stubSummarizer{err: errors.New("db down")}, sender, quiet(), brt)

	res, err := svc.ProcessDue(t.Context(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Empty(t, sender.sent)
	assert.Empty(t, repo.marked)
}

func TestProcessDueListFailure(t *testing.T) {
	repo := newMemRepo()
	repo.listErr = errors.New("db down")
	svc := NewService(repo, &stubSummarizer{}, &recordingSender{}, quiet(), brt)

	_, err := svc.ProcessDue(t.Context(), time.Now())
	require.Error(t, err)
}

func TestCreateNormalizesAndValidates(t *testing.T) {
	svc := NewService(newMemRepo(), &stubSummarizer{}, &recordingSender{}, quiet(), brt)

	s, err := svc.Create(t.Context(), 9, Input{RecipientEmail: "x@y.test", Frequency: FrequencyMonthly, DayOfMonth: intp(5), Time: "8:05"})
	require.NoError(t, err)
	assert.Equal(t, "08:05", s.Time)
	assert.Equal(t, ReportFinancial, s.ReportType)
	assert.Equal(t, StatusActive, s.Status)
	assert.True(t, s.IncludeCharts)
	assert.Equal(t, int64(9), s.UserID)

	_, err = svc.Create(t.Context(), 9, Input{RecipientEmail: "x@y.test", Frequency: FrequencyWeekly, Time: "08:00"})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(t.Context(), 9, Input{RecipientEmail: "x@y.test", Frequency: FrequencyBiweekly, Time: "08:00"})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(t.Context(), 9, Input{RecipientEmail: "x@y.test", Frequency: FrequencyDaily, Time: "25:00"})
	require.ErrorIs(t, err, shared.ErrValidation)
}
