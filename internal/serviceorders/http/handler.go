package serviceordershttp

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/monstter/backoffice/internal/payments"
	"github.com/monstter/backoffice/internal/platform/httpx"
	"github.com/monstter/backoffice/internal/rbac"
	"github.com/monstter/backoffice/internal/serviceorders"
	"github.com/monstter/backoffice/internal/shared"
)

type orderService interface {
	Get(ctx context.Context, actor *shared.Principal, id int64) (serviceorders.Order, error)
	List(ctx context.Context, actor *shared.Principal, filter serviceorders.ListFilter) ([]serviceorders.Order, error)
	Create(ctx context.Context, actor *shared.Principal, in serviceorders.DraftInput) (serviceorders.Order, error)
	UpdateDraft(ctx context.Context, actor *shared.Principal, id int64, in serviceorders.DraftInput) (serviceorders.Order, error)
	Send(ctx context.Context, actor *shared.Principal, id int64) (serviceorders.Order, error)
	Advance(ctx context.Context, id int64, next serviceorders.Status) (serviceorders.Order, error)
	Close(ctx context.Context, id int64, in serviceorders.CloseInput) (serviceorders.Order, *payments.Payment, error)
}

// Handler serves service order endpoints.
type Handler struct {
	logger  *slog.Logger
	service orderService
	rbac    rbac.Middleware
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service orderService, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers HTTP routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/service-orders", func(r chi.Router) {
		r.Use(h.rbac.RequireRole(shared.RoleAdmin, shared.RoleManager, shared.RolePartner))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.RequireRole(shared.RolePartner))
			r.Post("/", h.create)
			r.Put("/{id}", h.update)
			r.Post("/{id}/send", h.send)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.RequireBackOffice())
			r.Post("/{id}/status", h.advance)
			r.Post("/{id}/close", h.close)
		})
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter serviceorders.ListFilter
	for _, raw := range strings.Split(q.Get("status"), ",") {
		if s := serviceorders.Status(strings.TrimSpace(raw)); s.Valid() {
			filter.Statuses = append(filter.Statuses, s)
		}
	}
	if v, err := strconv.ParseInt(q.Get("partnerId"), 10, 64); err == nil {
		filter.PartnerID = v
	}
	if v, err := strconv.ParseInt(q.Get("clientId"), 10, 64); err == nil {
		filter.ClientID = v
	}
	orders, err := h.service.List(r.Context(), shared.PrincipalFromContext(r.Context()), filter)
	if err != nil {
		h.logger.Error("list service orders", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if orders == nil {
		orders = []serviceorders.Order{}
	}
	httpx.JSON(w, http.StatusOK, orders)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	o, err := h.service.Get(r.Context(), shared.PrincipalFromContext(r.Context()), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in serviceorders.DraftInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	o, err := h.service.Create(r.Context(), shared.PrincipalFromContext(r.Context()), in)
	if err != nil {
		h.logger.Warn("create service order", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, o)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in serviceorders.DraftInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	o, err := h.service.UpdateDraft(r.Context(), shared.PrincipalFromContext(r.Context()), id, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	o, err := h.service.Send(r.Context(), shared.PrincipalFromContext(r.Context()), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

type advanceRequest struct {
	Status serviceorders.Status `json:"status" validate:"required,oneof=in_progress completed"`
}

func (h *Handler) advance(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req advanceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	o, err := h.service.Advance(r.Context(), id, req.Status)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

type closeResponse struct {
	Order   serviceorders.Order `json:"order"`
	Payment *payments.Payment   `json:"payment,omitempty"`
}

func (h *Handler) close(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in serviceorders.CloseInput
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &in); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	o, p, err := h.service.Close(r.Context(), id, in)
	if err != nil {
		h.logger.Warn("close service order", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, closeResponse{Order: o, Payment: p})
}
