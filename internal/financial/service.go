package financial

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/monstter/backoffice/internal/shared"
)

// Service computes financial views over closed service orders.
type Service struct {
	store  Store
	cache  *Cache
	logger *slog.Logger
	loc    *time.Location
}

// NewService wires the store with an optional cache.
func NewService(store Store, cache *Cache, logger *slog.Logger, loc *time.Location) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, cache: cache, logger: logger.With("module", "financial"), loc: loc}
}

// Location is the zone used for calendar boundaries.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Summarize aggregates the closed orders matching filter.
func (s *Service) Summarize(ctx context.Context, filter Filter) (Summary, error) {
	orders, err := s.store.ClosedOrders(ctx, filter)
	if err != nil {
		return Summary{}, fmt.Errorf("financial: load orders: %w", err)
	}
	if len(orders) == 0 {
		return Summary{}, nil
	}
	clientRows, err := s.store.Clients(ctx, clientIDs(orders))
	if err != nil {
		return Summary{}, fmt.Errorf("financial: load clients: %w", err)
	}
	partnerRows, err := s.store.Partners(ctx, partnerIDs(orders))
	if err != nil {
		return Summary{}, fmt.Errorf("financial: load partners: %w", err)
	}
	return Aggregate(orders, clientRows, partnerRows), nil
}

// CalculateFinancialMetrics returns nil when the period could not be loaded.
func (s *Service) CalculateFinancialMetrics(ctx context.Context, start, end time.Time) *Metrics {
	m, err := s.metrics(ctx, start, end)
	if err != nil {
		s.logger.ErrorContext(ctx, "calculate metrics", slog.Any("error", err))
		return nil
	}
	return &m
}

func (s *Service) metrics(ctx context.Context, start, end time.Time) (Metrics, error) {
	var out Metrics
	key := s.cache.BuildKey(ctx, "financial", "metrics", periodKey(start, end))
	err := s.cache.FetchJSON(ctx, "metrics", key, &out, func(ctx context.Context) (any, error) {
		sum, err := s.Summarize(ctx, Filter{Start: start, End: end})
		if err != nil {
			return nil, err
		}
		return sum.Metrics(), nil
	})
	return out, err
}

// GetMonthlyComparison returns one row per month of year. A month that failed to load
// is reported as zero.
func (s *Service) GetMonthlyComparison(ctx context.Context, year int) []MonthlyComparison {
	out := make([]MonthlyComparison, 0, 12)
	for month := time.January; month <= time.December; month++ {
		period := shared.MonthPeriod(year, month, s.loc)
		m := s.CalculateFinancialMetrics(ctx, period.Start, period.End)
		if m == nil {
			zero := ZeroMetrics()
			m = &zero
		}
		out = append(out, MonthlyComparison{
			Month:         shared.MonthName(month),
			Revenue:       m.TotalRevenue,
			Cost:          m.TotalCost,
			Profit:        m.GrossProfit,
			BillableHours: m.TotalBillableHours,
			Orders:        m.CompletedOrders,
		})
	}
	return out
}

// GetConsultantMetrics returns an empty slice when the period could not be loaded.
func (s *Service) GetConsultantMetrics(ctx context.Context, start, end time.Time) []ConsultantMetrics {
	out, err := s.consultants(ctx, start, end)
	if err != nil {
		s.logger.ErrorContext(ctx, "consultant metrics", slog.Any("error", err))
		return []ConsultantMetrics{}
	}
	return out
}

func (s *Service) consultants(ctx context.Context, start, end time.Time) ([]ConsultantMetrics, error) {
	var out []ConsultantMetrics
	key := s.cache.BuildKey(ctx, "financial", "consultants", periodKey(start, end))
	err := s.cache.FetchJSON(ctx, "consultants", key, &out, func(ctx context.Context) (any, error) {
		orders, err := s.store.ClosedOrders(ctx, Filter{Start: start, End: end})
		if err != nil {
			return nil, fmt.Errorf("financial: load orders: %w", err)
		}
		if len(orders) == 0 {
			return []ConsultantMetrics{}, nil
		}
		partnerRows, err := s.store.Partners(ctx, partnerIDs(orders))
		if err != nil {
			return nil, fmt.Errorf("financial: load partners: %w", err)
		}
		return AggregateConsultants(orders, partnerRows), nil
	})
	if out == nil {
		out = []ConsultantMetrics{}
	}
	return out, err
}

// GetUtilizationRate returns a zero result when the period could not be loaded.
func (s *Service) GetUtilizationRate(ctx context.Context, start, end time.Time) Utilization {
	u, err := s.utilization(ctx, start, end)
	if err != nil {
		s.logger.ErrorContext(ctx, "utilization", slog.Any("error", err))
		return ZeroUtilization()
	}
	return u
}

func (s *Service) utilization(ctx context.Context, start, end time.Time) (Utilization, error) {
	orders, err := s.store.ClosedOrders(ctx, Filter{Start: start, End: end})
	if err != nil {
		return Utilization{}, fmt.Errorf("financial: load orders: %w", err)
	}
	return ComputeUtilization(orders, start, end), nil
}

// GetDashboard loads the dashboard figures concurrently. Unlike the single views it
// fails as a whole when any part fails.
func (s *Service) GetDashboard(ctx context.Context, start, end time.Time) (Dashboard, error) {
	var out Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := s.metrics(gctx, start, end)
		out.Metrics = m
		return err
	})
	g.Go(func() error {
		c, err := s.consultants(gctx, start, end)
		out.Consultants = c
		return err
	})
	g.Go(func() error {
		u, err := s.utilization(gctx, start, end)
		out.Utilization = u
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "dashboard", slog.Any("error", err), slog.String("period", periodKey(start, end)))
		return Dashboard{}, err
	}
	return out, nil
}

// Bump drops cached views after order data changed.
func (s *Service) Bump(ctx context.Context) error {
	return s.cache.Bump(ctx)
}
