package clients

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

const clientColumns = "id, name, email, COALESCE(phone, ''), COALESCE(company, ''), COALESCE(document, ''), " +
	"billing_mode, charged_value::text, status, COALESCE(notes, ''), created_at, updated_at"

// Repository defines client persistence.
type Repository interface {
	Get(ctx context.Context, id int64) (Client, error)
	GetMany(ctx context.Context, ids []int64) (map[int64]Client, error)
	List(ctx context.Context, filter ListFilter) ([]Client, int, error)
	Create(ctx context.Context, in Input) (Client, error)
	Update(ctx context.Context, id int64, in Input) (Client, error)
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

func scanClient(row pgx.Row) (Client, error) {
	var c Client
	var charged *string
	var mode, status string
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Company, &c.Document,
		&mode, &charged, &status, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, shared.ErrNotFound
		}
		return Client{}, err
	}
	c.BillingMode = money.RateMode(mode)
	c.ChargedValue = money.NullFromText(charged)
	c.Status = Status(status)
	return c, nil
}

func (r *pgRepository) Get(ctx context.Context, id int64) (Client, error) {
	query, args, err := db.SQL.Select(clientColumns).From("clients").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return Client{}, fmt.Errorf("clients: build get: %w", err)
	}
	c, err := scanClient(r.pool.QueryRow(ctx, query, args...))
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return Client{}, fmt.Errorf("clients: get %d: %w", id, err)
	}
	return c, err
}

func (r *pgRepository) GetMany(ctx context.Context, ids []int64) (map[int64]Client, error) {
	out := make(map[int64]Client, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := db.SQL.Select(clientColumns).From("clients").Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("clients: build get many: %w", err)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("clients: get many: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("clients: scan: %w", err)
		}
		out[c.ID] = c
	}
	return out, rows.Err()
}

func (r *pgRepository) List(ctx context.Context, filter ListFilter) ([]Client, int, error) {
	base := db.SQL.Select().From("clients")
	if filter.Status != "" {
		base = base.Where(sq.Eq{"status": string(filter.Status)})
	}
	base = db.Search(base, filter.Search, "name", "email", "company")

	countQuery, countArgs, err := base.Column("COUNT(*)").ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("clients: build count: %w", err)
	}
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("clients: count: %w", err)
	}

	query, args, err := db.Paginate(base.Column(clientColumns).OrderBy("name ASC", "id ASC"), filter.Limit, filter.Offset).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("clients: build list: %w", err)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("clients: list: %w", err)
	}
	defer rows.Close()
	var out []Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("clients: scan: %w", err)
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *pgRepository) Create(ctx context.Context, in Input) (Client, error) {
	query, args, err := db.SQL.Insert("clients").
		Columns("name", "email", "phone", "company", "document", "billing_mode", "charged_value", "status", "notes").
		Values(in.Name, in.Email, db.NullString(in.Phone), db.NullString(in.Company), db.NullString(in.Document),
			string(in.BillingMode), money.Arg(in.ChargedValue), string(in.Status), db.NullString(in.Notes)).
		Suffix("RETURNING " + clientColumns).
		ToSql()
	if err != nil {
		return Client{}, fmt.Errorf("clients: build create: %w", err)
	}
	c, err := scanClient(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Client{}, fmt.Errorf("clients: create: %w", shared.ErrConflict)
		}
		return Client{}, fmt.Errorf("clients: create: %w", err)
	}
	return c, nil
}

func (r *pgRepository) Update(ctx context.Context, id int64, in Input) (Client, error) {
	query, args, err := db.SQL.Update("clients").SetMap(map[string]any{
		"name":          in.Name,
		"email":         in.Email,
		"phone":         db.NullString(in.Phone),
		"company":       db.NullString(in.Company),
		"document":      db.NullString(in.Document),
		"billing_mode":  string(in.BillingMode),
		"charged_value": money.Arg(in.ChargedValue),
		"status":        string(in.Status),
		"notes":         db.NullString(in.Notes),
		"updated_at":    sq.Expr("NOW()"),
	}).Where(sq.Eq{"id": id}).Suffix("RETURNING " + clientColumns).ToSql()
	if err != nil {
		return Client{}, fmt.Errorf("clients: build update: %w", err)
	}
	c, err := scanClient(r.pool.QueryRow(ctx, query, args...))
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return Client{}, fmt.Errorf("clients: update %d: %w", id, err)
	}
	return c, err
}

func (r *pgRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM clients WHERE id = $1", id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return fmt.Errorf("clients: %d is still referenced: %w", id, shared.ErrConflict)
		}
		return fmt.Errorf("clients: delete %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
