package servicereportshttp

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/monstter/backoffice/internal/partners"
	"github.com/monstter/backoffice/internal/platform/httpx"
	"github.com/monstter/backoffice/internal/rbac"
	"github.com/monstter/backoffice/internal/servicereports"
	"github.com/monstter/backoffice/internal/servicereports/export"
	"github.com/monstter/backoffice/internal/shared"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type reportService interface {
	GenerateClientServiceReport(ctx context.Context, clientID int64, start, end time.Time) (*servicereports.ClientServiceReport, error)
	GeneratePartnerPaymentReport(ctx context.Context, partnerID int64, start, end time.Time) (*servicereports.PartnerPaymentReport, error)
	GetClientsWithOrdersInPeriod(ctx context.Context, start, end time.Time) []servicereports.ClientRef
}

type pdfRenderer interface {
	ClientReportPDF(ctx context.Context, report *servicereports.ClientServiceReport) ([]byte, error)
	PartnerReportPDF(ctx context.Context, report *servicereports.PartnerPaymentReport) ([]byte, error)
}

type partnerLookup interface {
	ForUser(ctx context.Context, userID int64) (partners.Partner, error)
}

// Handler serves client and partner period reports.
type Handler struct {
	logger   *slog.Logger
	service  reportService
	renderer pdfRenderer
	partners partnerLookup
	rbac     rbac.Middleware
	location *time.Location
}

// NewHandler constructs the handler. A nil renderer disables PDF output.
func NewHandler(logger *slog.Logger, service reportService, renderer pdfRenderer, partners partnerLookup, rbac rbac.Middleware, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{logger: logger, service: service, renderer: renderer, partners: partners, rbac: rbac, location: loc}
}

// MountRoutes registers HTTP routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/service-reports", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.RequireBackOffice())
			r.Get("/clients", h.clientsInPeriod)
			r.Get("/clients/{id}", h.clientReport)
		})
		r.With(h.rbac.RequireRole(shared.RoleAdmin, shared.RoleManager, shared.RolePartner)).
			Get("/partners/{id}", h.partnerReport)
	})
}

func (h *Handler) period(r *http.Request) (shared.Period, error) {
	q := r.URL.Query()
	return shared.ParsePeriod(q.Get("periodStart"), q.Get("periodEnd"), h.location)
}

func (h *Handler) clientsInPeriod(w http.ResponseWriter, r *http.Request) {
	period, err := h.period(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.service.GetClientsWithOrdersInPeriod(r.Context(), period.Start, period.End))
}

func (h *Handler) clientReport(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	period, err := h.period(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	report, err := h.service.GenerateClientServiceReport(r.Context(), id, period.Start, period.End)
	if err != nil {
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "report unavailable")
		return
	}
	if report == nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	name := fmt.Sprintf("relatorio-cliente-%d-%s", id, period.Start.In(h.location).Format("20060102"))
	switch r.URL.Query().Get("format") {
	case "pdf":
		h.writePDF(w, r, name, func(ctx context.Context) ([]byte, error) {
			return h.renderer.ClientReportPDF(ctx, report)
		})
	case "xlsx":
		h.writeXLSX(w, name, func(buf *bytes.Buffer) error {
			return export.WriteClientReportXLSX(buf, report, h.location)
		})
	default:
		httpx.JSON(w, http.StatusOK, report)
	}
}

func (h *Handler) partnerReport(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.authorizePartner(r, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	period, err := h.period(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	report, err := h.service.GeneratePartnerPaymentReport(r.Context(), id, period.Start, period.End)
	if err != nil {
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "report unavailable")
		return
	}
	if report == nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	name := fmt.Sprintf("relatorio-parceiro-%d-%s", id, period.Start.In(h.location).Format("20060102"))
	switch r.URL.Query().Get("format") {
	case "pdf":
		h.writePDF(w, r, name, func(ctx context.Context) ([]byte, error) {
			return h.renderer.PartnerReportPDF(ctx, report)
		})
	case "xlsx":
		h.writeXLSX(w, name, func(buf *bytes.Buffer) error {
			return export.WritePartnerReportXLSX(buf, report, h.location)
		})
	default:
		httpx.JSON(w, http.StatusOK, report)
	}
}

// authorizePartner lets partners read only their own payment report.
func (h *Handler) authorizePartner(r *http.Request, partnerID int64) error {
	principal := shared.PrincipalFromContext(r.Context())
	if principal == nil {
		return shared.ErrUnauthorized
	}
	if principal.Role.IsBackOffice() {
		return nil
	}
	own, err := h.partners.ForUser(r.Context(), principal.UserID)
	if err != nil {
		return shared.ErrForbidden
	}
	if own.ID != partnerID {
		return shared.ErrForbidden
	}
	return nil
}

func (h *Handler) writePDF(w http.ResponseWriter, r *http.Request, name string, render func(context.Context) ([]byte, error)) {
	if h.renderer == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "pdf rendering is not configured")
		return
	}
	pdf, err := render(r.Context())
	if err != nil {
		h.logger.Error("render report pdf", slog.String("file", name), slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Bad Gateway", "pdf rendering failed")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (h *Handler) writeXLSX(w http.ResponseWriter, name string, write func(*bytes.Buffer) error) {
	buf := &bytes.Buffer{}
	if err := write(buf); err != nil {
		h.logger.Error("write report xlsx", slog.String("file", name), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "spreadsheet export failed")
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.xlsx", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
