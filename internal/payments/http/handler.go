package paymentshttp

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/monstter/backoffice/internal/partners"
	"github.com/monstter/backoffice/internal/payments"
	"github.com/monstter/backoffice/internal/platform/httpx"
	"github.com/monstter/backoffice/internal/rbac"
	"github.com/monstter/backoffice/internal/shared"
)

type paymentService interface {
	ListByPartner(ctx context.Context, partnerID int64) ([]payments.Payment, error)
	ListPending(ctx context.Context, filter payments.PendingFilter) ([]payments.Payment, error)
	Update(ctx context.Context, id int64, in payments.UpdateInput) (payments.Payment, error)
}

type partnerLookup interface {
	ForUser(ctx context.Context, userID int64) (partners.Partner, error)
}

// Handler serves payout endpoints.
type Handler struct {
	logger   *slog.Logger
	service  paymentService
	partners partnerLookup
	rbac     rbac.Middleware
	location *time.Location
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service paymentService, partners partnerLookup, rbac rbac.Middleware, loc *time.Location) *Handler {
	return &Handler{logger: logger, service: service, partners: partners, rbac: rbac, location: loc}
}

// MountRoutes registers HTTP routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/payments", func(r chi.Router) {
		r.With(h.rbac.RequireRole(shared.RolePartner)).Get("/me", h.mine)
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.RequireBackOffice())
			r.Get("/", h.byPartner)
			r.Get("/pending", h.pending)
			r.Patch("/{id}", h.update)
		})
	})
}

func (h *Handler) mine(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	partner, err := h.partners.ForUser(r.Context(), principal.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.writeList(w, r, partner.ID)
}

func (h *Handler) byPartner(w http.ResponseWriter, r *http.Request) {
	partnerID, err := strconv.ParseInt(r.URL.Query().Get("partnerId"), 10, 64)
	if err != nil || partnerID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "partnerId required")
		return
	}
	h.writeList(w, r, partnerID)
}

func (h *Handler) writeList(w http.ResponseWriter, r *http.Request, partnerID int64) {
	items, err := h.service.ListByPartner(r.Context(), partnerID)
	if err != nil {
		h.logger.Error("list payments", slog.Int64("partner_id", partnerID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if items == nil {
		items = []payments.Payment{}
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) pending(w http.ResponseWriter, r *http.Request) {
	var filter payments.PendingFilter
	q := r.URL.Query()
	if q.Get("periodStart") != "" && q.Get("periodEnd") != "" {
		period, err := shared.ParsePeriod(q.Get("periodStart"), q.Get("periodEnd"), h.location)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		filter.Start, filter.End = &period.Start, &period.End
	}
	items, err := h.service.ListPending(r.Context(), filter)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if items == nil {
		items = []payments.Payment{}
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in payments.UpdateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}
