package financialhttp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monstter/backoffice/internal/financial"
	"github.com/monstter/backoffice/internal/rbac"
	"github.com/monstter/backoffice/internal/shared"
)

type stubMetrics struct {
	metrics      *financial.Metrics
	dashboardErr error
	year         int
	start, end   time.Time
}

func (s *stubMetrics) CalculateFinancialMetrics(_ context.Context, start, end time.Time) *financial.Metrics {
	s.start, s.end = start, end
	return s.metrics
}

func (s *stubMetrics) GetMonthlyComparison(_ context.Context, year int) []financial.MonthlyComparison {
	s.year = year
	out := make([]financial.MonthlyComparison, 12)
	for i := range out {
		out[i] = financial.MonthlyComparison{Month: shared.MonthName(time.Month(i + 1)), Revenue: "0.00"}
	}
	return out
}

func (s *stubMetrics) GetConsultantMetrics(context.Context, time.Time, time.Time) []financial.ConsultantMetrics {
	return []financial.ConsultantMetrics{}
}

func (s *stubMetrics) GetUtilizationRate(context.Context, time.Time, time.Time) financial.Utilization {
	return financial.Utilization{UtilizationRate: "50.00", BillableHours: 20, TotalAvailableHours: 40}
}

func (s *stubMetrics) GetDashboard(context.Context, time.Time, time.Time) (financial.Dashboard, error) {
	if s.dashboardErr != nil {
		return financial.Dashboard{}, s.dashboardErr
	}
	return financial.Dashboard{Metrics: financial.ZeroMetrics()}, nil
}

func newRouter(svc *stubMetrics) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger, svc, rbac.Middleware{Logger: logger}, time.UTC)
	h.now = func() time.Time { return time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC) }
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func get(h http.Handler, target string, p *shared.Principal) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if p != nil {
		req = req.WithContext(shared.ContextWithPrincipal(req.Context(), p))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const period = "periodStart=2026-01-01&periodEnd=2026-01-31"

func TestMetricsRequiresBackOfficeRole(t *testing.T) {
	m := financial.ZeroMetrics()
	h := newRouter(&stubMetrics{metrics: &m})

	rec := get(h, "/financial-metrics/metrics?"+period, &shared.Principal{UserID: 3, Role: shared.RolePartner})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = get(h, "/financial-metrics/metrics?"+period, &shared.Principal{UserID: 4, Role: shared.RoleUser})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = get(h, "/financial-metrics/metrics?"+period, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	for _, role := range []shared.Role{shared.RoleAdmin, shared.RoleManager} {
		rec = get(h, "/financial-metrics/metrics?"+period, &shared.Principal{UserID: 1, Role: role})
		require.Equal(t, http.StatusOK, rec.Code, role)
		var body financial.Metrics
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "0.00", body.ProfitMargin)
	}
}

func TestMetricsPeriodCoversWholeEndDay(t *testing.T) {
	m := financial.ZeroMetrics()
	svc := &stubMetrics{metrics: &m}
	h := newRouter(svc)

	rec := get(h, "/financial-metrics/metrics?"+period, &shared.Principal{UserID: 1, Role: shared.RoleAdmin})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), svc.start)
	assert.Equal(t, time.Date(2026, 1, 31, 23, 59, 59, 999999999, time.UTC), svc.end)

	rec = get(h, "/financial-metrics/metrics?periodStart=2026-02-01&periodEnd=2026-01-01", &shared.Principal{UserID: 1, Role: shared.RoleAdmin})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsUnavailableRendersNull(t *testing.T) {
	h := newRouter(&stubMetrics{})
	rec := get(h, "/financial-metrics/metrics?"+period, &shared.Principal{UserID: 1, Role: shared.RoleManager})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "null", rec.Body.String())
}

func TestMonthlyDefaultsToCurrentYear(t *testing.T) {
	svc := &stubMetrics{}
	h := newRouter(svc)
	admin := &shared.Principal{UserID: 1, Role: shared.RoleAdmin}

	rec := get(h, "/financial-metrics/monthly", admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2026, svc.year)
	var rows []financial.MonthlyComparison
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	assert.Len(t, rows, 12)

	rec = get(h, "/financial-metrics/monthly?year=2024", admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2024, svc.year)

	rec = get(h, "/financial-metrics/monthly?year=abc", admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUtilizationAndDashboard(t *testing.T) {
	svc := &stubMetrics{}
	h := newRouter(svc)
	manager := &shared.Principal{UserID: 1, Role: shared.RoleManager}

	rec := get(h, "/financial-metrics/utilization?"+period, manager)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"utilizationRate":"50.00","billableHours":20,"totalAvailableHours":40}`, rec.Body.String())

	rec = get(h, "/financial-metrics/dashboard?"+period, manager)
	assert.Equal(t, http.StatusOK, rec.Code)

	svc.dashboardErr = errors.New("db down")
	rec = get(h, "/financial-metrics/dashboard?"+period, manager)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
