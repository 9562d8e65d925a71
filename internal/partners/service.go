package partners

import (
	"context"
	"fmt"
	"strings"

	"github.com/monstter/backoffice/internal/money"
	"github.com/monstter/backoffice/internal/shared"
)

// Service exposes partner use cases.
type Service struct {
	repo Repository
}

// NewService constructs the service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get loads one partner.
func (s *Service) Get(ctx context.Context, id int64) (Partner, error) {
	return s.repo.Get(ctx, id)
}

// ForUser resolves the partner record linked to an identity provider user.
func (s *Service) ForUser(ctx context.Context, userID int64) (Partner, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// List returns partners, optionally filtered by status.
func (s *Service) List(ctx context.Context, status Status) ([]Partner, error) {
	return s.repo.List(ctx, status)
}

// Create validates and stores a partner.
func (s *Service) Create(ctx context.Context, in Input) (Partner, error) {
	in, err := normalize(in)
	if err != nil {
		return Partner{}, err
	}
	return s.repo.Create(ctx, in)
}

// Update replaces the writable fields of a partner.
func (s *Service) Update(ctx context.Context, id int64, in Input) (Partner, error) {
	in, err := normalize(in)
	if err != nil {
		return Partner{}, err
	}
	return s.repo.Update(ctx, id, in)
}

// Delete removes a partner.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func normalize(in Input) (Input, error) {
	in.CompanyName = strings.TrimSpace(in.CompanyName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.PayMode == "" {
		in.PayMode = money.ModeHourly
	}
	if !in.PayMode.Valid() {
		return in, fmt.Errorf("%w: pay mode %q", shared.ErrValidation, in.PayMode)
	}
	if in.Status == "" {
		in.Status = StatusActive
	}
	if in.PaidValue.Valid && in.PaidValue.Decimal.IsNegative() {
		return in, fmt.Errorf("%w: paid value must not be negative", shared.ErrValidation)
	}
	return in, nil
}
