package serviceorders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/monstter/backoffice/internal/partners"
	"github.com/monstter/backoffice/internal/payments"
	"github.com/monstter/backoffice/internal/platform/db"
	"github.com/monstter/backoffice/internal/shared"
)

// PaymentWriter stores the payout attached to a closed order.
type PaymentWriter interface {
	Upsert(ctx context.Context, q db.Querier, in payments.UpsertInput) (payments.Payment, error)
}

// PartnerLookup resolves partner records.
type PartnerLookup interface {
	Get(ctx context.Context, id int64) (partners.Partner, error)
	ForUser(ctx context.Context, userID int64) (partners.Partner, error)
}

// Notifier announces orders sent to clients.
type Notifier interface {
	OrderSent(ctx context.Context, order Order) error
}

// CacheInvalidator drops cached financial aggregates.
type CacheInvalidator interface {
	Bump(ctx context.Context) error
}

// Service implements the service order lifecycle.
type Service struct {
	repo     Repository
	payments PaymentWriter
	partners PartnerLookup
	notifier Notifier
	cache    CacheInvalidator
	logger   *slog.Logger
	location *time.Location
	now      func() time.Time
}

// NewService constructs the service. notifier and cache may be nil.
func NewService(repo Repository, payments PaymentWriter, partners PartnerLookup, notifier Notifier, cache CacheInvalidator, logger *slog.Logger, loc *time.Location) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:     repo,
		payments: payments,
		partners: partners,
		notifier: notifier,
		cache:    cache,
		logger:   logger.With(slog.String("module", "serviceorders")),
		location: loc,
		now:      time.Now,
	}
}

// Get loads an order. Partners only see their own orders.
func (s *Service) Get(ctx context.Context, actor *shared.Principal, id int64) (Order, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if err := s.authorizeRead(ctx, actor, order); err != nil {
		return Order{}, err
	}
	return order, nil
}

// List returns orders visible to the actor.
func (s *Service) List(ctx context.Context, actor *shared.Principal, filter ListFilter) ([]Order, error) {
	if actor == nil {
		return nil, shared.ErrUnauthorized
	}
	if !actor.Role.IsBackOffice() {
		partner, err := s.partnerFor(ctx, actor)
		if err != nil {
			return nil, err
		}
		filter.PartnerID = partner.ID
	}
	return s.repo.List(ctx, filter)
}

// Create stores a draft for the acting partner and allocates its number.
func (s *Service) Create(ctx context.Context, actor *shared.Principal, in DraftInput) (Order, error) {
	partner, err := s.partnerFor(ctx, actor)
	if err != nil {
		return Order{}, err
	}
	in, err = normalizeDraft(in)
	if err != nil {
		return Order{}, err
	}
	hours := ComputeTotalHours(in.StartDateTime, in.EndDateTime, in.IntervalMinutes)
	year := s.now().In(s.location).Year()

	var created Order
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.LockNumbering(ctx, year); err != nil {
			return err
		}
		last, err := tx.LastNumber(ctx, year)
		if err != nil {
			return err
		}
		created, err = tx.Insert(ctx, NextOSNumber(last, year), partner.ID, in, hours.StringFixed(2))
		return err
	})
	if err != nil {
		return Order{}, err
	}
	s.logger.Info("service order created", slog.String("os_number", created.OSNumber), slog.Int64("partner_id", partner.ID))
	return created, nil
}

// UpdateDraft edits an order still in draft. Only the owning partner may edit.
func (s *Service) UpdateDraft(ctx context.Context, actor *shared.Principal, id int64, in DraftInput) (Order, error) {
	partner, err := s.partnerFor(ctx, actor)
	if err != nil {
		return Order{}, err
	}
	in, err = normalizeDraft(in)
	if err != nil {
		return Order{}, err
	}
	hours := ComputeTotalHours(in.StartDateTime, in.EndDateTime, in.IntervalMinutes)

	var updated Order
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.PartnerID != partner.ID {
			return shared.ErrForbidden
		}
		if current.Status != StatusDraft {
			return fmt.Errorf("%w: only drafts can be edited", shared.ErrInvalidTransition)
		}
		updated, err = tx.UpdateDraft(ctx, id, in, hours.StringFixed(2))
		return err
	})
	return updated, err
}

// Send moves a draft to sent and notifies the client and the manager. Notification
// failures are logged and do not undo the transition.
func (s *Service) Send(ctx context.Context, actor *shared.Principal, id int64) (Order, error) {
	partner, err := s.partnerFor(ctx, actor)
	if err != nil {
		return Order{}, err
	}
	var sent Order
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.PartnerID != partner.ID {
			return shared.ErrForbidden
		}
		if current.Status != StatusDraft {
			return fmt.Errorf("%w: %s -> %s", shared.ErrInvalidTransition, current.Status, StatusSent)
		}
		sent, err = tx.SetStatus(ctx, id, StatusSent)
		return err
	})
	if err != nil {
		return Order{}, err
	}
	if s.notifier != nil {
		if err := s.notifier.OrderSent(ctx, sent); err != nil {
			s.logger.Error("notify order sent", slog.String("os_number", sent.OSNumber), slog.Any("error", err))
		}
	}
	return sent, nil
}

// Advance moves an order to in_progress or completed.
func (s *Service) Advance(ctx context.Context, id int64, next Status) (Order, error) {
	if next != StatusInProgress && next != StatusCompleted {
		return Order{}, fmt.Errorf("%w: use close to finish an order", shared.ErrValidation)
	}
	var updated Order
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !current.Status.CanMoveTo(next) {
			return fmt.Errorf("%w: %s -> %s", shared.ErrInvalidTransition, current.Status, next)
		}
		updated, err = tx.SetStatus(ctx, id, next)
		return err
	})
	return updated, err
}

// Close finalises an order. The status change and the payout upsert commit together,
// then cached financial aggregates are invalidated.
func (s *Service) Close(ctx context.Context, id int64, in CloseInput) (Order, *payments.Payment, error) {
	var closed Order
	var payout *payments.Payment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !current.Status.CanMoveTo(StatusClosed) {
			return fmt.Errorf("%w: %s -> %s", shared.ErrInvalidTransition, current.Status, StatusClosed)
		}
		closed, err = tx.SetStatus(ctx, id, StatusClosed)
		if err != nil {
			return err
		}
		if in.Payment == nil {
			return nil
		}
		upsert, err := s.payoutFor(ctx, closed, *in.Payment)
		if err != nil {
			return err
		}
		p, err := s.payments.Upsert(ctx, tx.Querier(), upsert)
		if err != nil {
			return err
		}
		payout = &p
		return nil
	})
	if err != nil {
		return Order{}, nil, err
	}
	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warn("bump metrics cache", slog.Any("error", err))
		}
	}
	s.logger.Info("service order closed", slog.String("os_number", closed.OSNumber), slog.Bool("payment", payout != nil))
	return closed, payout, nil
}

func (s *Service) payoutFor(ctx context.Context, order Order, in ClosePayment) (payments.UpsertInput, error) {
	out := payments.UpsertInput{
		OSID:        order.ID,
		PartnerID:   order.PartnerID,
		Status:      payments.Status(in.Status),
		PaymentDate: in.PaymentDate,
		Notes:       in.Notes,
	}
	if out.Status == "" {
		out.Status = payments.StatusPending
	}
	if !out.Status.Valid() {
		return out, fmt.Errorf("%w: payment status %q", shared.ErrValidation, in.Status)
	}
	if in.Amount.Valid {
		if in.Amount.Decimal.IsNegative() {
			return out, fmt.Errorf("%w: payment amount must not be negative", shared.ErrValidation)
		}
		out.Amount = in.Amount.Decimal
		return out, nil
	}
	partner, err := s.partners.Get(ctx, order.PartnerID)
	if err != nil {
		return out, fmt.Errorf("serviceorders: payout partner %d: %w", order.PartnerID, err)
	}
	out.Amount = partner.PayMode.Amount(partner.PaidValue.Decimal, order.TotalHours).Round(2)
	return out, nil
}

func (s *Service) partnerFor(ctx context.Context, actor *shared.Principal) (partners.Partner, error) {
	if actor == nil {
		return partners.Partner{}, shared.ErrUnauthorized
	}
	partner, err := s.partners.ForUser(ctx, actor.UserID)
	if errors.Is(err, shared.ErrNotFound) {
		return partners.Partner{}, fmt.Errorf("%w: user %d has no partner record", shared.ErrForbidden, actor.UserID)
	}
	return partner, err
}

func (s *Service) authorizeRead(ctx context.Context, actor *shared.Principal, order Order) error {
	if actor == nil {
		return shared.ErrUnauthorized
	}
	if actor.Role.IsBackOffice() {
		return nil
	}
	partner, err := s.partnerFor(ctx, actor)
	if err != nil {
		return err
	}
	if partner.ID != order.PartnerID {
		return shared.ErrForbidden
	}
	return nil
}

func normalizeDraft(in DraftInput) (DraftInput, error) {
	in.ClientName = strings.TrimSpace(in.ClientName)
	in.ClientEmail = strings.TrimSpace(in.ClientEmail)
	in.ServiceType = strings.TrimSpace(in.ServiceType)
	if in.StartDateTime.IsZero() {
		return in, fmt.Errorf("%w: startDateTime required", shared.ErrValidation)
	}
	if in.EndDateTime != nil && in.EndDateTime.Before(in.StartDateTime) {
		return in, fmt.Errorf("%w: endDateTime before startDateTime", shared.ErrValidation)
	}
	if in.IntervalMinutes != nil && *in.IntervalMinutes < 0 {
		return in, fmt.Errorf("%w: interval must not be negative", shared.ErrValidation)
	}
	return in, nil
}
