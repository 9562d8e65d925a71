package payments

import (
	"context"
	"fmt"

	"github.com/monstter/backoffice/internal/shared"
)

// Service exposes payment use cases.
type Service struct {
	repo Repository
}

// NewService constructs the service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListByPartner returns the payouts of one partner, newest first.
func (s *Service) ListByPartner(ctx context.Context, partnerID int64) ([]Payment, error) {
	return s.repo.ListByPartner(ctx, partnerID)
}

// ListPending returns unpaid payouts created inside the optional window.
func (s *Service) ListPending(ctx context.Context, filter PendingFilter) ([]Payment, error) {
	if filter.Start != nil && filter.End != nil && filter.End.Before(*filter.Start) {
		return nil, fmt.Errorf("%w: end before start", shared.ErrValidation)
	}
	return s.repo.ListPending(ctx, filter)
}

// Update records settlement progress. Completing a payment requires a payment date.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (Payment, error) {
	if !in.Status.Valid() {
		return Payment{}, fmt.Errorf("%w: status %q", shared.ErrValidation, in.Status)
	}
	if in.Status == StatusCompleted && in.PaymentDate == nil {
		return Payment{}, fmt.Errorf("%w: paymentDate required for completed payments", shared.ErrValidation)
	}
	return s.repo.Update(ctx, id, in)
}
