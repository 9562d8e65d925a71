package financialhttp

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/monstter/backoffice/internal/financial"
	"github.com/monstter/backoffice/internal/platform/httpx"
	"github.com/monstter/backoffice/internal/rbac"
	"github.com/monstter/backoffice/internal/shared"
)

type metricsService interface {
	CalculateFinancialMetrics(ctx context.Context, start, end time.Time) *financial.Metrics
	GetMonthlyComparison(ctx context.Context, year int) []financial.MonthlyComparison
	GetConsultantMetrics(ctx context.Context, start, end time.Time) []financial.ConsultantMetrics
	GetUtilizationRate(ctx context.Context, start, end time.Time) financial.Utilization
	GetDashboard(ctx context.Context, start, end time.Time) (financial.Dashboard, error)
}

// Handler serves the financial metrics endpoints.
type Handler struct {
	logger   *slog.Logger
	service  metricsService
	rbac     rbac.Middleware
	location *time.Location
	now      func() time.Time
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service metricsService, rbac rbac.Middleware, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{logger: logger, service: service, rbac: rbac, location: loc, now: time.Now}
}

// MountRoutes registers HTTP routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/financial-metrics", func(r chi.Router) {
		r.Use(h.rbac.RequireBackOffice())
		r.Get("/metrics", h.metrics)
		r.Get("/monthly", h.monthly)
		r.Get("/consultants", h.consultants)
		r.Get("/utilization", h.utilization)
		r.Get("/dashboard", h.dashboard)
	})
}

func (h *Handler) period(r *http.Request) (shared.Period, error) {
	q := r.URL.Query()
	return shared.ParsePeriod(q.Get("periodStart"), q.Get("periodEnd"), h.location)
}

func (h *Handler) metrics(w http.ResponseWriter, r *http.Request) {
	period, err := h.period(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	// null body when the period could not be loaded
	httpx.JSON(w, http.StatusOK, h.service.CalculateFinancialMetrics(r.Context(), period.Start, period.End))
}

func (h *Handler) monthly(w http.ResponseWriter, r *http.Request) {
	year := h.now().In(h.location).Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 1970 || y > 9999 {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "year must be a four digit number")
			return
		}
		year = y
	}
	httpx.JSON(w, http.StatusOK, h.service.GetMonthlyComparison(r.Context(), year))
}

func (h *Handler) consultants(w http.ResponseWriter, r *http.Request) {
	period, err := h.period(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.service.GetConsultantMetrics(r.Context(), period.Start, period.End))
}

func (h *Handler) utilization(w http.ResponseWriter, r *http.Request) {
	period, err := h.period(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.service.GetUtilizationRate(r.Context(), period.Start, period.End))
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	period, err := h.period(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	dash, err := h.service.GetDashboard(r.Context(), period.Start, period.End)
	if err != nil {
		h.logger.Error("financial dashboard", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "dashboard unavailable")
		return
	}
	httpx.JSON(w, http.StatusOK, dash)
}
