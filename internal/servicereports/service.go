package servicereports

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/monstter/backoffice/internal/clients"
	"github.com/monstter/backoffice/internal/financial"
	"github.com/monstter/backoffice/internal/money"
	"github.com/monstter/backoffice/internal/partners"
	"github.com/monstter/backoffice/internal/serviceorders"
	"github.com/monstter/backoffice/internal/shared"
)

const dateLayout = "02/01/2006"

// OrderSource yields closed orders.
type OrderSource interface {
	ClosedOrders(ctx context.Context, filter financial.Filter) ([]serviceorders.Order, error)
}

type clientGetter interface {
	Get(ctx context.Context, id int64) (clients.Client, error)
}

type partnerGetter interface {
	Get(ctx context.Context, id int64) (partners.Partner, error)
}

// Service builds per-client and per-partner period reports.
type Service struct {
	orders   OrderSource
	clients  clientGetter
	partners partnerGetter
	logger   *slog.Logger
	loc      *time.Location
	now      func() time.Time
}

// NewService wires the report sources.
func NewService(orders OrderSource, clientRepo clientGetter, partnerRepo partnerGetter, logger *slog.Logger, loc *time.Location) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		orders:   orders,
		clients:  clientRepo,
		partners: partnerRepo,
		logger:   logger.With("module", "servicereports"),
		loc:      loc,
		now:      time.Now,
	}
}

// GenerateClientServiceReport returns nil without error when the client does not exist.
func (s *Service) GenerateClientServiceReport(ctx context.Context, clientID int64, start, end time.Time) (*ClientServiceReport, error) {
	client, err := s.clients.Get(ctx, clientID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "load client", slog.Int64("client_id", clientID), slog.Any("error", err))
		return nil, fmt.Errorf("servicereports: client %d: %w", clientID, err)
	}
	orders, err := s.orders.ClosedOrders(ctx, financial.Filter{Start: start, End: end, ClientID: clientID})
	if err != nil {
		s.logger.ErrorContext(ctx, "load client orders", slog.Int64("client_id", clientID), slog.Any("error", err))
		return nil, fmt.Errorf("servicereports: client %d orders: %w", clientID, err)
	}

	rate := client.ChargedValue.Decimal
	report := &ClientServiceReport{
		ClientID:     client.ID,
		ClientName:   client.Name,
		ClientEmail:  client.Email,
		BillingMode:  client.BillingMode,
		ChargedValue: rate.StringFixed(2),
		PeriodStart:  start,
		PeriodEnd:    end,
		Orders:       make([]ClientOrderLine, 0, len(orders)),
		GeneratedAt:  s.now().In(s.loc),
		Rate:         rate,
	}
	for _, o := range orders {
		report.Hours = report.Hours.Add(o.TotalHours)
		report.Amount = report.Amount.Add(client.BillingMode.Amount(rate, o.TotalHours))
		report.Orders = append(report.Orders, ClientOrderLine{
			OSNumber:    o.OSNumber,
			ServiceType: o.ServiceType,
			StartDate:   s.formatDate(&o.StartDateTime),
			EndDate:     s.formatDate(o.EndDateTime),
			TotalHours:  o.TotalHours.StringFixed(2),
			Description: o.Description,
			Status:      string(o.Status),
		})
	}
	report.TotalHours, report.TotalAmount = totals(report.Hours, report.Amount)
	return report, nil
}

// GeneratePartnerPaymentReport returns nil without error when the partner does not exist.
func (s *Service) GeneratePartnerPaymentReport(ctx context.Context, partnerID int64, start, end time.Time) (*PartnerPaymentReport, error) {
	partner, err := s.partners.Get(ctx, partnerID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "load partner", slog.Int64("partner_id", partnerID), slog.Any("error", err))
		return nil, fmt.Errorf("servicereports: partner %d: %w", partnerID, err)
	}
	orders, err := s.orders.ClosedOrders(ctx, financial.Filter{Start: start, End: end, PartnerID: partnerID})
	if err != nil {
		s.logger.ErrorContext(ctx, "load partner orders", slog.Int64("partner_id", partnerID), slog.Any("error", err))
		return nil, fmt.Errorf("servicereports: partner %d orders: %w", partnerID, err)
	}

	rate := partner.PaidValue.Decimal
	report := &PartnerPaymentReport{
		PartnerID:    partner.ID,
		PartnerName:  partner.CompanyName,
		PartnerEmail: partner.Email,
		PayMode:      partner.PayMode,
		PaidValue:    rate.StringFixed(2),
		PeriodStart:  start,
		PeriodEnd:    end,
		Orders:       make([]PartnerOrderLine, 0, len(orders)),
		GeneratedAt:  s.now().In(s.loc),
		Rate:         rate,
	}
	for _, o := range orders {
		report.Hours = report.Hours.Add(o.TotalHours)
		report.Amount = report.Amount.Add(partner.PayMode.Amount(rate, o.TotalHours))
		report.Orders = append(report.Orders, PartnerOrderLine{
			OSNumber:    o.OSNumber,
			ClientName:  o.ClientName,
			ServiceType: o.ServiceType,
			TotalHours:  o.TotalHours.StringFixed(2),
			Status:      string(o.Status),
		})
	}
	report.TotalHours, report.TotalAmount = totals(report.Hours, report.Amount)
	return report, nil
}

// GetClientsWithOrdersInPeriod lists distinct clients of closed orders, in order of first
// appearance. Orders without a client are left out and failures yield an empty list.
func (s *Service) GetClientsWithOrdersInPeriod(ctx context.Context, start, end time.Time) []ClientRef {
	orders, err := s.orders.ClosedOrders(ctx, financial.Filter{Start: start, End: end})
	if err != nil {
		s.logger.ErrorContext(ctx, "clients in period", slog.Any("error", err))
		return []ClientRef{}
	}
	out := []ClientRef{}
	seen := make(map[int64]struct{})
	for _, o := range orders {
		if o.ClientID == nil {
			continue
		}
		if _, ok := seen[*o.ClientID]; ok {
			continue
		}
		seen[*o.ClientID] = struct{}{}
		out = append(out, ClientRef{ClientID: *o.ClientID, ClientName: o.ClientName, ClientEmail: o.ClientEmail})
	}
	return out
}

func (s *Service) formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.In(s.loc).Format(dateLayout)
}

func totals(hours, amount decimal.Decimal) (float64, string) {
	return hours.Round(2).InexactFloat64(), money.Format(amount)
}
