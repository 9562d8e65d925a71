package clientshttp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/monstter/backoffice/internal/clients"
	"github.com/monstter/backoffice/internal/platform/httpx"
	"github.com/monstter/backoffice/internal/rbac"
	"github.com/monstter/backoffice/internal/shared"
)

type clientService interface {
	Get(ctx context.Context, id int64) (clients.Client, error)
	List(ctx context.Context, filter clients.ListFilter) ([]clients.Client, int, error)
	Create(ctx context.Context, in clients.Input) (clients.Client, error)
	Update(ctx context.Context, id int64, in clients.Input) (clients.Client, error)
	Delete(ctx context.Context, id int64) error
	Import(ctx context.Context, rows []clients.Input) clients.ImportResult
}

const maxImportBytes = 10 << 20

// Handler serves client management endpoints.
type Handler struct {
	logger  *slog.Logger
	service clientService
	rbac    rbac.Middleware
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service clientService, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers HTTP routes. Partners may read clients to fill order forms.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/clients", func(r chi.Router) {
		r.Use(h.rbac.RequireRole(shared.RoleAdmin, shared.RoleManager, shared.RolePartner))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.RequireBackOffice())
			r.Post("/", h.create)
			r.Put("/{id}", h.update)
			r.Delete("/{id}", h.delete)
		})
		r.With(h.rbac.RequireRole(shared.RoleAdmin)).Post("/import", h.importBulk)
	})
}

type listResponse struct {
	Items      []clients.Client  `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pg := shared.PageFromQuery(q)

	items, total, err := h.service.List(r.Context(), clients.ListFilter{
		Status: clients.Status(q.Get("status")),
		Search: q.Get("q"),
		Limit:  pg.Limit(),
		Offset: pg.Offset(),
	})
	if err != nil {
		h.logger.Error("list clients", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if items == nil {
		items = []clients.Client{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Items: items, Pagination: pg.WithTotal(total)})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in clients.Input
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.logger.Warn("create client", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in clients.Input
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type importRequest struct {
	Clients []clients.Input `json:"clients" validate:"required,min=1,max=1000"`
}

// importBulk accepts either a JSON body or a multipart XLSX upload in the "file" field.
func (h *Handler) importBulk(w http.ResponseWriter, r *http.Request) {
	var rows []clients.Input
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
		file, _, err := r.FormFile("file")
		if err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: file: %v", shared.ErrValidation, err))
			return
		}
		defer func() { _ = file.Close() }()
		rows, err = clients.ParseSheet(file)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
	} else {
		var req importRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.RespondError(w, err)
			return
		}
		rows = req.Clients
	}
	res := h.service.Import(r.Context(), rows)
	h.logger.Info("clients imported", slog.Int("success", res.Success), slog.Int("failed", res.Failed))
	httpx.JSON(w, http.StatusOK, res)
}
