package app

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monstter/backoffice/internal/auth"
	"github.com/monstter/backoffice/internal/observability"
	"github.com/monstter/backoffice/internal/rbac"
	"github.com/monstter/backoffice/internal/shared"
	_ "github.com/monstter/backoffice/internal/testing/guard"
)

type echoModule struct{}

func (echoModule) MountRoutes(r chi.Router) {
	r.Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
		p := shared.PrincipalFromContext(r.Context())
		_, _ = w.Write([]byte(string(p.Role)))
	})
}

type publicModule struct{}

func (publicModule) MountPublic(r chi.Router) {
	r.Get("/open", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
}

func newTestRouter(t *testing.T) (http.Handler, *auth.Verifier) {
	t.Helper()
	verifier, err := auth.NewVerifier("router-secret")
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewRouter(RouterParams{
		Logger:   logger,
		Config:   &Config{AppEnv: "test", RateLimitPerMinute: 1000},
		Verifier: verifier,
		RBAC:     rbac.Middleware{Logger: logger},
		Metrics:  observability.NewMetrics(),
		Public:   []PublicMounter{publicModule{}},
		API:      []RouteMounter{echoModule{}},
		Jobs:     echoModule{},
	})
	return h, verifier
}

func TestRouterRequiresBearerForAPI(t *testing.T) {
	h, verifier := newTestRouter(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/whoami", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := verifier.Issue(shared.Principal{UserID: 7, Role: shared.RoleManager}, time.Minute)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "manager", rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestRouterPublicAndOpsRoutes(t *testing.T) {
	h, verifier := newTestRouter(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/open", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	token, err := verifier.Issue(shared.Principal{UserID: 3, Role: shared.RolePartner}, time.Minute)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/ops/jobs/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouterHealthAndMetrics(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "backoffice_http_requests_total")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLoggerHonoursFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &Config{LogFormat: "json", LogLevel: "warn"})
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}

func TestConfigLocation(t *testing.T) {
	loc, err := (&Config{AppTimezone: "America/Sao_Paulo"}).Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Sao_Paulo", loc.String())

	_, err = (&Config{AppTimezone: "Mars/Olympus"}).Location()
	assert.Error(t, err)
}
