package contacthttp

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/monstter/backoffice/internal/contact"
	"github.com/monstter/backoffice/internal/platform/httpx"
	"github.com/monstter/backoffice/internal/rbac"
)

type contactService interface {
	Submit(ctx context.Context, in contact.Input) (contact.Message, error)
	List(ctx context.Context) ([]contact.Message, error)
	SetStatus(ctx context.Context, id int64, status contact.Status) (contact.Message, error)
}

// Handler serves the contact form and its back-office inbox.
type Handler struct {
	logger  *slog.Logger
	service contactService
	rbac    rbac.Middleware
	limit   int
}

// NewHandler constructs the handler. submitsPerMinute bounds public submissions per IP.
func NewHandler(logger *slog.Logger, service contactService, rbac rbac.Middleware, submitsPerMinute int) *Handler {
	if submitsPerMinute <= 0 {
		submitsPerMinute = 5
	}
	return &Handler{logger: logger, service: service, rbac: rbac, limit: submitsPerMinute}
}

// MountPublic registers the unauthenticated submit route.
func (h *Handler) MountPublic(r chi.Router) {
	r.With(httprate.Limit(h.limit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))).
		Post("/contact", h.submit)
}

// MountRoutes registers the authenticated inbox routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/contact-messages", func(r chi.Router) {
		r.Use(h.rbac.RequireBackOffice())
		r.Get("/", h.list)
		r.Patch("/{id}", h.setStatus)
	})
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var in contact.Input
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	m, err := h.service.Submit(r.Context(), in)
	if err != nil {
		h.logger.Warn("contact submit", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"success": true, "id": m.ID})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list contact messages", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if items == nil {
		items = []contact.Message{}
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in contact.StatusInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	m, err := h.service.SetStatus(r.Context(), id, in.Status)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, m)
}
