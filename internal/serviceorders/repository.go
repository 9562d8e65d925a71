package serviceorders

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/monstter/backoffice/internal/money"
	"github.com/monstter/backoffice/internal/platform/db"
	"github.com/monstter/backoffice/internal/shared"
)

const orderColumns = "id, os_number, status, partner_id, client_id, client_name, client_email, service_type, " +
	"start_date_time, interval_minutes, end_date_time, total_hours::text, COALESCE(description, ''), created_at, updated_at"

// Repository defines service order persistence.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (Order, error)
	List(ctx context.Context, filter ListFilter) ([]Order, error)
}

// TxRepository defines operations that run inside a transaction.
type TxRepository interface {
	Querier() db.Querier
	LockNumbering(ctx context.Context, year int) error
	LastNumber(ctx context.Context, year int) (string, error)
	Insert(ctx context.Context, number string, partnerID int64, in DraftInput, hours string) (Order, error)
	GetForUpdate(ctx context.Context, id int64) (Order, error)
	UpdateDraft(ctx context.Context, id int64, in DraftInput, hours string) (Order, error)
	SetStatus(ctx context.Context, id int64, status Status) (Order, error)
}

var (
	_ Repository   = (*pgRepository)(nil)
	_ TxRepository = (*pgTxRepository)(nil)
)

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &pgTxRepository{q: tx})
	})
}

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	var status string
	var hours *string
	var interval *int32
	err := row.Scan(&o.ID, &o.OSNumber, &status, &o.PartnerID, &o.ClientID, &o.ClientName, &o.ClientEmail,
		&o.ServiceType, &o.StartDateTime, &interval, &o.EndDateTime, &hours, &o.Description, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, shared.ErrNotFound
		}
		return Order{}, err
	}
	o.Status = Status(status)
	o.TotalHours = money.ParsePtr(hours)
	if interval != nil {
		v := int(*interval)
		o.IntervalMinutes = &v
	}
	return o, nil
}

func (r *pgRepository) Get(ctx context.Context, id int64) (Order, error) {
	return getOrder(ctx, r.pool, id, false)
}

func getOrder(ctx context.Context, q db.Querier, id int64, forUpdate bool) (Order, error) {
	b := db.SQL.Select(orderColumns).From("service_orders").Where(sq.Eq{"id": id})
	if forUpdate {
		b = b.Suffix("FOR UPDATE")
	}
	query, args, err := b.ToSql()
	if err != nil {
		return Order{}, fmt.Errorf("serviceorders: build get: %w", err)
	}
	o, err := scanOrder(q.QueryRow(ctx, query, args...))
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return Order{}, fmt.Errorf("serviceorders: get %d: %w", id, err)
	}
	return o, err
}

func (r *pgRepository) List(ctx context.Context, filter ListFilter) ([]Order, error) {
	b := db.SQL.Select(orderColumns).From("service_orders")
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		b = b.Where(sq.Eq{"status": statuses})
	}
	if filter.PartnerID > 0 {
		b = b.Where(sq.Eq{"partner_id": filter.PartnerID})
	}
	if filter.ClientID > 0 {
		b = b.Where(sq.Eq{"client_id": filter.ClientID})
	}
	if filter.StartFrom != nil {
		b = b.Where(sq.GtOrEq{"start_date_time": *filter.StartFrom})
	}
	if filter.StartTo != nil {
		b = b.Where(sq.LtOrEq{"start_date_time": *filter.StartTo})
	}
	b = db.Paginate(b.OrderBy("start_date_time ASC", "id ASC"), filter.Limit, filter.Offset)

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("serviceorders: build list: %w", err)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("serviceorders: list: %w", err)
	}
	defer rows.Close()
	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("serviceorders: scan: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

type pgTxRepository struct {
	q db.Querier
}

func (t *pgTxRepository) Querier() db.Querier {
	return t.q
}

func (t *pgTxRepository) LockNumbering(ctx context.Context, year int) error {
	return db.AdvisoryXactLock(ctx, t.q, shared.OrderNumberLockKey(year))
}

func (t *pgTxRepository) LastNumber(ctx context.Context, year int) (string, error) {
	query, args, err := db.SQL.Select("os_number").From("service_orders").
		Where(sq.Like{"os_number": fmt.Sprintf("OS-%d-%%", year)}).
		OrderBy("LENGTH(os_number) DESC", "os_number DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("serviceorders: build last number: %w", err)
	}
	var last string
	if err := t.q.QueryRow(ctx, query, args...).Scan(&last); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("serviceorders: last number: %w", err)
	}
	return last, nil
}

func (t *pgTxRepository) Insert(ctx context.Context, number string, partnerID int64, in DraftInput, hours string) (Order, error) {
	query, args, err := db.SQL.Insert("service_orders").
		Columns("os_number", "status", "partner_id", "client_id", "client_name", "client_email", "service_type",
			"start_date_time", "interval_minutes", "end_date_time", "total_hours", "description").
		Values(number, string(StatusDraft), partnerID, in.ClientID, in.ClientName, in.ClientEmail, in.ServiceType,
			in.StartDateTime, in.IntervalMinutes, in.EndDateTime, hours, db.NullString(in.Description)).
		Suffix("RETURNING " + orderColumns).
		ToSql()
	if err != nil {
		return Order{}, fmt.Errorf("serviceorders: build insert: %w", err)
	}
	o, err := scanOrder(t.q.QueryRow(ctx, query, args...))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Order{}, fmt.Errorf("serviceorders: number %s taken: %w", number, shared.ErrConflict)
		}
		if db.IsForeignKeyViolation(err) {
			return Order{}, fmt.Errorf("%w: unknown client", shared.ErrValidation)
		}
		return Order{}, fmt.Errorf("serviceorders: insert: %w", err)
	}
	return o, nil
}

func (t *pgTxRepository) GetForUpdate(ctx context.Context, id int64) (Order, error) {
	return getOrder(ctx, t.q, id, true)
}

func (t *pgTxRepository) UpdateDraft(ctx context.Context, id int64, in DraftInput, hours string) (Order, error) {
	query, args, err := db.SQL.Update("service_orders").SetMap(map[string]any{
		"client_id":        in.ClientID,
		"client_name":      in.ClientName,
		"client_email":     in.ClientEmail,
		"service_type":     in.ServiceType,
		"start_date_time":  in.StartDateTime,
		"interval_minutes": in.IntervalMinutes,
		"end_date_time":    in.EndDateTime,
		"total_hours":      hours,
		"description":      db.NullString(in.Description),
		"updated_at":       sq.Expr("NOW()"),
	}).Where(sq.Eq{"id": id}).Suffix("RETURNING " + orderColumns).ToSql()
	if err != nil {
		return Order{}, fmt.Errorf("serviceorders: build update: %w", err)
	}
	o, err := scanOrder(t.q.QueryRow(ctx, query, args...))
	switch {
	case err == nil, errors.Is(err, shared.ErrNotFound):
		return o, err
	case db.IsForeignKeyViolation(err):
		return Order{}, fmt.Errorf("%w: unknown client", shared.ErrValidation)
	default:
		return Order{}, fmt.Errorf("serviceorders: update %d: %w", id, err)
	}
}

func (t *pgTxRepository) SetStatus(ctx context.Context, id int64, status Status) (Order, error) {
	query, args, err := db.SQL.Update("service_orders").
		Set("status", string(status)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + orderColumns).
		ToSql()
	if err != nil {
		return Order{}, fmt.Errorf("serviceorders: build status: %w", err)
	}
	o, err := scanOrder(t.q.QueryRow(ctx, query, args...))
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return Order{}, fmt.Errorf("serviceorders: set status %d: %w", id, err)
	}
	return o, err
}
