package schedules

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/monstter/backoffice/internal/platform/db"
	"github.com/monstter/backoffice/internal/shared"
)

const scheduleColumns = "id, user_id, recipient_email, frequency, day_of_week, day_of_month, send_time, report_type, include_charts, status, last_sent_at, created_at, updated_at"

// Repository defines schedule persistence.
type Repository interface {
	Get(ctx context.Context, id int64) (Schedule, error)
	List(ctx context.Context, status Status) ([]Schedule, error)
	Create(ctx context.Context, userID int64, in Input) (Schedule, error)
	Update(ctx context.Context, id int64, in Input) (Schedule, error)
	Delete(ctx context.Context, id int64) error
	MarkSent(ctx context.Context, id int64, at time.Time) error
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func scanSchedule(row pgx.Row) (Schedule, error) {
	var s Schedule
	var dow, dom *int16
	var frequency, reportType, status string
	err := row.Scan(&s.ID, &s.UserID, &s.RecipientEmail, &frequency, &dow, &dom, &s.Time,
		&reportType, &s.IncludeCharts, &status, &s.LastSentAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Schedule{}, shared.ErrNotFound
		}
		return Schedule{}, err
	}
	s.Frequency = Frequency(frequency)
	s.ReportType = ReportType(reportType)
	s.Status = Status(status)
	s.DayOfWeek = widen(dow)
	s.DayOfMonth = widen(dom)
	return s, nil
}

func widen(v *int16) *int {
	if v == nil {
		return nil
	}
	n := int(*v)
	return &n
}

func (r *pgRepository) Get(ctx context.Context, id int64) (Schedule, error) {
	query, args, err := db.SQL.Select(scheduleColumns).From("report_schedules").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return Schedule{}, fmt.Errorf("schedules: build get: %w", err)
	}
	s, err := scanSchedule(r.pool.QueryRow(ctx, query, args...))
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return Schedule{}, fmt.Errorf("schedules: get %d: %w", id, err)
	}
	return s, err
}

func (r *pgRepository) List(ctx context.Context, status Status) ([]Schedule, error) {
	b := db.SQL.Select(scheduleColumns).From("report_schedules").OrderBy("id ASC")
	if status != "" {
		b = b.Where(sq.Eq{"status": string(status)})
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("schedules: build list: %w", err)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("schedules: list: %w", err)
	}
	defer rows.Close()
	var out []Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("schedules: scan: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *pgRepository) Create(ctx context.Context, userID int64, in Input) (Schedule, error) {
	query, args, err := db.SQL.Insert("report_schedules").
		Columns("user_id", "recipient_email", "frequency", "day_of_week", "day_of_month", "send_time", "report_type", "include_charts", "status").
		Values(userID, in.RecipientEmail, string(in.Frequency), in.DayOfWeek, in.DayOfMonth, in.Time, string(in.ReportType), *in.IncludeCharts, string(in.Status)).
		Suffix("RETURNING " + scheduleColumns).
		ToSql()
	if err != nil {
		return Schedule{}, fmt.Errorf("schedules: build create: %w", err)
	}
	s, err := scanSchedule(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return Schedule{}, fmt.Errorf("schedules: create: %w", err)
	}
	return s, nil
}

func (r *pgRepository) Update(ctx context.Context, id int64, in Input) (Schedule, error) {
	query, args, err := db.SQL.Update("report_schedules").SetMap(map[string]any{
		"recipient_email": in.RecipientEmail,
		"frequency":       string(in.Frequency),
		"day_of_week":     in.DayOfWeek,
		"day_of_month":    in.DayOfMonth,
		"send_time":       in.Time,
		"report_type":     string(in.ReportType),
		"include_charts":  *in.IncludeCharts,
		"status":          string(in.Status),
		"updated_at":      sq.Expr("NOW()"),
	}).Where(sq.Eq{"id": id}).Suffix("RETURNING " + scheduleColumns).ToSql()
	if err != nil {
		return Schedule{}, fmt.Errorf("schedules: build update: %w", err)
	}
	s, err := scanSchedule(r.pool.QueryRow(ctx, query, args...))
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return Schedule{}, fmt.Errorf("schedules: update %d: %w", id, err)
	}
	return s, err
}

func (r *pgRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM report_schedules WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("schedules: delete %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *pgRepository) MarkSent(ctx context.Context, id int64, at time.Time) error {
	_, err := r.pool.Exec(ctx, "UPDATE report_schedules SET last_sent_at = $2, updated_at = NOW() WHERE id = $1", id, at)
	if err != nil {
		return fmt.Errorf("schedules: mark sent %d: %w", id, err)
	}
	return nil
}
