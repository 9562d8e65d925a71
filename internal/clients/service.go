package clients

import (
	"context"
	"fmt"
	"strings"

	"github.com/monstter/backoffice/internal/money"
	"github.com/monstter/backoffice/internal/shared"
)

// Service exposes client use cases.
type Service struct {
	repo Repository
}

// NewService constructs the service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get loads one client.
func (s *Service) Get(ctx context.Context, id int64) (Client, error) {
	return s.repo.Get(ctx, id)
}

// List returns a page of clients and the total count.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Client, int, error) {
	return s.repo.List(ctx, filter)
}

// Create validates and stores a new client.
func (s *Service) Create(ctx context.Context, in Input) (Client, error) {
	in, err := normalize(in)
	if err != nil {
		return Client{}, err
	}
	return s.repo.Create(ctx, in)
}

// Update replaces the writable fields of a client.
func (s *Service) Update(ctx context.Context, id int64, in Input) (Client, error) {
	in, err := normalize(in)
	if err != nil {
		return Client{}, err
	}
	return s.repo.Update(ctx, id, in)
}

// Delete removes a client.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func normalize(in Input) (Input, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.BillingMode == "" {
		in.BillingMode = money.ModeHourly
	}
	if !in.BillingMode.Valid() {
		return in, fmt.Errorf("%w: billing mode %q", shared.ErrValidation, in.BillingMode)
	}
	if in.Status == "" {
		in.Status = StatusActive
	}
	if in.ChargedValue.Valid && in.ChargedValue.Decimal.IsNegative() {
		return in, fmt.Errorf("%w: charged value must not be negative", shared.ErrValidation)
	}
	return in, nil
}
