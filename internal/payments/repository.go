package payments

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

const paymentColumns = "id, os_id, partner_id, amount::text, status, payment_date, COALESCE(notes, ''), created_at, updated_at"

// Repository defines payment persistence.
type Repository interface {
	// Upsert writes through q so callers can include it in their own transaction.
	Upsert(ctx context.Context, q db.Querier, in UpsertInput) (Payment, error)
	GetByOrder(ctx context.Context, osID int64) (Payment, error)
	ListByPartner(ctx context.Context, partnerID int64) ([]Payment, error)
	ListPending(ctx context.Context, filter PendingFilter) ([]Payment, error)
	Update(ctx context.Context, id int64, in UpdateInput) (Payment, error)
}

var _ Repository = (*pgRepository)(nil)

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func scanPayment(row pgx.Row) (Payment, error) {
	var p Payment
	var amount, status string
	if err := row.Scan(&p.ID, &p.OSID, &p.PartnerID, &amount, &status, &p.PaymentDate, &p.Notes, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Payment{}, shared.ErrNotFound
		}
		return Payment{}, err
	}
	p.Amount = money.Parse(amount)
	p.Status = Status(status)
	return p, nil
}

func (r *pgRepository) Upsert(ctx context.Context, q db.Querier, in UpsertInput) (Payment, error) {
	if q == nil {
		q = r.pool
	}
	query, args, err := db.SQL.Insert("os_payments").
		Columns("os_id", "partner_id", "amount", "status", "payment_date", "notes").
		Values(in.OSID, in.PartnerID, in.Amount.String(), string(in.Status), in.PaymentDate, db.NullString(in.Notes)).
		Suffix(`ON CONFLICT (os_id) DO UPDATE SET
			partner_id = EXCLUDED.partner_id,
			amount = EXCLUDED.amount,
			status = EXCLUDED.status,
			payment_date = EXCLUDED.payment_date,
			notes = EXCLUDED.notes,
			updated_at = NOW()
		RETURNING ` + paymentColumns).
		ToSql()
	if err != nil {
		return Payment{}, fmt.Errorf("payments: build upsert: %w", err)
	}
	p, err := scanPayment(q.QueryRow(ctx, query, args...))
	if err != nil {
		return Payment{}, fmt.Errorf("payments: upsert os %d: %w", in.OSID, err)
	}
	return p, nil
}

func (r *pgRepository) GetByOrder(ctx context.Context, osID int64) (Payment, error) {
	query, args, err := db.SQL.Select(paymentColumns).From("os_payments").Where(sq.Eq{"os_id": osID}).ToSql()
	if err != nil {
		return Payment{}, fmt.Errorf("payments: build get: %w", err)
	}
	p, err := scanPayment(r.pool.QueryRow(ctx, query, args...))
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return Payment{}, fmt.Errorf("payments: get os %d: %w", osID, err)
	}
	return p, err
}

func (r *pgRepository) ListByPartner(ctx context.Context, partnerID int64) ([]Payment, error) {
	return r.list(ctx, db.SQL.Select(paymentColumns).From("os_payments").
		Where(sq.Eq{"partner_id": partnerID}).
		OrderBy("created_at DESC"))
}

func (r *pgRepository) ListPending(ctx context.Context, filter PendingFilter) ([]Payment, error) {
	b := db.SQL.Select(paymentColumns).From("os_payments").
		Where(sq.Eq{"status": string(StatusPending)}).
		OrderBy("created_at DESC")
	if filter.Start != nil {
		b = b.Where(sq.GtOrEq{"created_at": *filter.Start})
	}
	if filter.End != nil {
		b = b.Where(sq.LtOrEq{"created_at": *filter.End})
	}
	return r.list(ctx, b)
}

func (r *pgRepository) list(ctx context.Context, b sq.SelectBuilder) ([]Payment, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("payments: build list: %w", err)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("payments: list: %w", err)
	}
	defer rows.Close()
	var out []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("payments: scan: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *pgRepository) Update(ctx context.Context, id int64, in UpdateInput) (Payment, error) {
	set := map[string]any{
		"status":       string(in.Status),
		"payment_date": in.PaymentDate,
		"updated_at":   sq.Expr("NOW()"),
	}
	if in.Notes != nil {
		set["notes"] = db.NullString(*in.Notes)
	}
	query, args, err := db.SQL.Update("os_payments").SetMap(set).Where(sq.Eq{"id": id}).Suffix("RETURNING " + paymentColumns).ToSql()
	if err != nil {
		return Payment{}, fmt.Errorf("payments: build update: %w", err)
	}
	p, err := scanPayment(r.pool.QueryRow(ctx, query, args...))
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return Payment{}, fmt.Errorf("payments: update %d: %w", id, err)
	}
	return p, err
}
