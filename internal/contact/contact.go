// Package contact stores messages sent through the public contact form.
package contact

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/monstter/backoffice/internal/platform/db"
	"github.com/monstter/backoffice/internal/shared"
)

// Status tracks how a message was handled.
type Status string

const (
	StatusPending Status = "pending"
	StatusRead    Status = "read"
	StatusReplied Status = "replied"
)

// Message is a contact form submission.
type Message struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Company   string    `json:"company,omitempty"`
	Message   string    `json:"message"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Input is the public form payload.
type Input struct {
	Name    string `json:"name" validate:"required,min=2,max=255"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"required,min=10,max=30"`
	Company string `json:"company" validate:"max=255"`
	Message string `json:"message" validate:"required,min=10,max=5000"`
}

// StatusInput changes the handling status of a message.
type StatusInput struct {
	Status Status `json:"status" validate:"required,oneof=pending read replied"`
}

// Repository defines contact message persistence.
type Repository interface {
	Create(ctx context.Context, in Input) (Message, error)
	List(ctx context.Context) ([]Message, error)
	SetStatus(ctx context.Context, id int64, status Status) (Message, error)
}

const messageColumns = "id, name, email, phone, COALESCE(company, ''), message, status, created_at"

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func scanMessage(row pgx.Row) (Message, error) {
	var m Message
	var status string
	if err := row.Scan(&m.ID, &m.Name, &m.Email, &m.Phone, &m.Company, &m.Message, &status, &m.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Message{}, shared.ErrNotFound
		}
		return Message{}, err
	}
	m.Status = Status(status)
	return m, nil
}

func (r *pgRepository) Create(ctx context.Context, in Input) (Message, error) {
	query, args, err := db.SQL.Insert("contact_messages").
		Columns("name", "email", "phone", "company", "message").
		Values(in.Name, in.Email, in.Phone, db.NullString(in.Company), in.Message).
		Suffix("RETURNING " + messageColumns).
		ToSql()
	if err != nil {
		return Message{}, fmt.Errorf("contact: build create: %w", err)
	}
	m, err := scanMessage(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return Message{}, fmt.Errorf("contact: create: %w", err)
	}
	return m, nil
}

func (r *pgRepository) List(ctx context.Context) ([]Message, error) {
	query, args, err := db.SQL.Select(messageColumns).From("contact_messages").OrderBy("created_at DESC", "id DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("contact: build list: %w", err)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("contact: list: %w", err)
	}
	defer rows.Close()
	var out []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("contact: scan: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *pgRepository) SetStatus(ctx context.Context, id int64, status Status) (Message, error) {
	query, args, err := db.SQL.Update("contact_messages").
		Set("status", string(status)).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + messageColumns).
		ToSql()
	if err != nil {
		return Message{}, fmt.Errorf("contact: build status: %w", err)
	}
	m, err := scanMessage(r.pool.QueryRow(ctx, query, args...))
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return Message{}, fmt.Errorf("contact: status %d: %w", id, err)
	}
	return m, err
}

// Service handles contact messages.
type Service struct {
	repo Repository
}

// NewService constructs the service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Submit stores a trimmed public submission.
func (s *Service) Submit(ctx context.Context, in Input) (Message, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Company = strings.TrimSpace(in.Company)
	in.Message = strings.TrimSpace(in.Message)
	if len([]rune(in.Name)) < 2 || len([]rune(in.Message)) < 10 || len(in.Phone) < 10 {
		return Message{}, fmt.Errorf("%w: name, phone or message too short", shared.ErrValidation)
	}
	return s.repo.Create(ctx, in)
}

// List returns messages newest first.
func (s *Service) List(ctx context.Context) ([]Message, error) {
	return s.repo.List(ctx)
}

// SetStatus changes a message's handling status.
func (s *Service) SetStatus(ctx context.Context, id int64, status Status) (Message, error) {
	switch status {
	case StatusPending, StatusRead, StatusReplied:
	default:
		return Message{}, fmt.Errorf("%w: unknown status %q", shared.ErrValidation, status)
	}
	return s.repo.SetStatus(ctx, id, status)
}
