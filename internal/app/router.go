package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/monstter/backoffice/internal/auth"
	"github.com/monstter/backoffice/internal/observability"
	"github.com/monstter/backoffice/internal/platform/httpx"
	"github.com/monstter/backoffice/internal/rbac"
	"github.com/monstter/backoffice/internal/shared"
)

// RouteMounter is implemented by every module handler.
type RouteMounter interface {
	MountRoutes(r chi.Router)
}

// PublicMounter registers routes reachable without a token.
type PublicMounter interface {
	MountPublic(r chi.Router)
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger   *slog.Logger
	Config   *Config
	Verifier *auth.Verifier
	RBAC     rbac.Middleware
	Metrics  *observability.Metrics

	// Public handlers mount under /api without authentication.
	Public []PublicMounter
	// API handlers mount under /api behind bearer authentication.
	API []RouteMounter
	// Ops handlers (report renderer ping, job queue health) mount under /api/ops for admins.
	Report RouteMounter
	Jobs   RouteMounter
}

// NewRouter constructs the chi.Router with back-office defaults.
func NewRouter(params RouterParams) http.Handler {
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not found", r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusMethodNotAllowed, "Method not allowed", r.Method)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		for _, h := range params.Public {
			if h != nil {
				h.MountPublic(r)
			}
		}
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate(params.Verifier, logger))
			for _, h := range params.API {
				if h != nil {
					h.MountRoutes(r)
				}
			}
			r.Route("/ops", func(r chi.Router) {
				r.Use(params.RBAC.RequireRole(shared.RoleAdmin))
				if params.Report != nil {
					r.Route("/report", params.Report.MountRoutes)
				}
				if params.Jobs != nil {
					r.Route("/jobs", params.Jobs.MountRoutes)
				}
			})
		})
	})

	return r
}
