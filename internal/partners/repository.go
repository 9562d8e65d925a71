package partners

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

const partnerColumns = "id, user_id, company_name, email, COALESCE(phone, ''), pay_mode, paid_value::text, status, created_at, updated_at"

// Repository defines partner persistence.
type Repository interface {
	Get(ctx context.Context, id int64) (Partner, error)
	GetByUserID(ctx context.Context, userID int64) (Partner, error)
	GetMany(ctx context.Context, ids []int64) (map[int64]Partner, error)
	List(ctx context.Context, status Status) ([]Partner, error)
	Create(ctx context.Context, in Input) (Partner, error)
	Update(ctx context.Context, id int64, in Input) (Partner, error)
	Delete(ctx context.Context, id int64) error
}

var _ Repository = (*pgRepository)(nil)

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func scanPartner(row pgx.Row) (Partner, error) {
	var p Partner
	var paid *string
	var mode, status string
	if err := row.Scan(&p.ID, &p.UserID, &p.CompanyName, &p.Email, &p.Phone, &mode, &paid, &status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Partner{}, shared.ErrNotFound
		}
		return Partner{}, err
	}
	p.PayMode = money.RateMode(mode)
	p.PaidValue = money.NullFromText(paid)
	p.Status = Status(status)
	return p, nil
}

func (r *pgRepository) getOne(ctx context.Context, where sq.Eq) (Partner, error) {
	query, args, err := db.SQL.Select(partnerColumns).From("partners").Where(where).ToSql()
	if err != nil {
		return Partner{}, fmt.Errorf("partners: build get: %w", err)
	}
	p, err := scanPartner(r.pool.QueryRow(ctx, query, args...))
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return Partner{}, fmt.Errorf("partners: get: %w", err)
	}
	return p, err
}

func (r *pgRepository) Get(ctx context.Context, id int64) (Partner, error) {
	return r.getOne(ctx, sq.Eq{"id": id})
}

func (r *pgRepository) GetByUserID(ctx context.Context, userID int64) (Partner, error) {
	return r.getOne(ctx, sq.Eq{"user_id": userID})
}

func (r *pgRepository) GetMany(ctx context.Context, ids []int64) (map[int64]Partner, error) {
	out := make(map[int64]Partner, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := db.SQL.Select(partnerColumns).From("partners").Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("partners: build get many: %w", err)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("partners: get many: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanPartner(rows)
		if err != nil {
			return nil, fmt.Errorf("partners: scan: %w", err)
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (r *pgRepository) List(ctx context.Context, status Status) ([]Partner, error) {
	b := db.SQL.Select(partnerColumns).From("partners").OrderBy("company_name ASC", "id ASC")
	if status != "" {
		b = b.Where(sq.Eq{"status": string(status)})
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("partners: build list: %w", err)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("partners: list: %w", err)
	}
	defer rows.Close()
	var out []Partner
	for rows.Next() {
		p, err := scanPartner(rows)
		if err != nil {
			return nil, fmt.Errorf("partners: scan: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *pgRepository) Create(ctx context.Context, in Input) (Partner, error) {
	query, args, err := db.SQL.Insert("partners").
		Columns("user_id", "company_name", "email", "phone", "pay_mode", "paid_value", "status").
		Values(in.UserID, in.CompanyName, in.Email, db.NullString(in.Phone), string(in.PayMode), money.Arg(in.PaidValue), string(in.Status)).
		Suffix("RETURNING " + partnerColumns).
		ToSql()
	if err != nil {
		return Partner{}, fmt.Errorf("partners: build create: %w", err)
	}
	p, err := scanPartner(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Partner{}, fmt.Errorf("partners: user %d already linked: %w", in.UserID, shared.ErrConflict)
		}
		return Partner{}, fmt.Errorf("partners: create: %w", err)
	}
	return p, nil
}

func (r *pgRepository) Update(ctx context.Context, id int64, in Input) (Partner, error) {
	query, args, err := db.SQL.Update("partners").SetMap(map[string]any{
		"user_id":      in.UserID,
		"company_name": in.CompanyName,
		"email":        in.Email,
		"phone":        db.NullString(in.Phone),
		"pay_mode":     string(in.PayMode),
		"paid_value":   money.Arg(in.PaidValue),
		"status":       string(in.Status),
		"updated_at":   sq.Expr("NOW()"),
	}).Where(sq.Eq{"id": id}).Suffix("RETURNING " + partnerColumns).ToSql()
	if err != nil {
		return Partner{}, fmt.Errorf("partners: build update: %w", err)
	}
	p, err := scanPartner(r.pool.QueryRow(ctx, query, args...))
	switch {
	case err == nil:
		return p, nil
	case errors.Is(err, shared.ErrNotFound):
		return Partner{}, err
	case db.IsUniqueViolation(err):
		return Partner{}, fmt.Errorf("partners: user %d already linked: %w", in.UserID, shared.ErrConflict)
	default:
		return Partner{}, fmt.Errorf("partners: update %d: %w", id, err)
	}
}

func (r *pgRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM partners WHERE id = $1", id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return fmt.Errorf("partners: %d has service orders or payments: %w", id, shared.ErrConflict)
		}
		return fmt.Errorf("partners: delete %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
