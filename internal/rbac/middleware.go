// Package rbac guards routes by the caller's role.
package rbac

import (
	"log/slog"
	"net/http"

	"github.com/monstter/backoffice/internal/platform/httpx"
	"github.com/monstter/backoffice/internal/shared"
)

// Middleware wires role authorization helpers for HTTP handlers.
type Middleware struct {
	Logger *slog.Logger
}

// RequireRole ensures the current principal holds one of the given roles.
func (m Middleware) RequireRole(roles ...shared.Role) func(http.Handler) http.Handler {
	allowed := make(map[shared.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := shared.PrincipalFromContext(r.Context())
			if p == nil {
				httpx.RespondError(w, shared.ErrUnauthorized)
				return
			}
			if _, ok := allowed[p.Role]; !ok {
				if m.Logger != nil {
					m.Logger.Warn("rbac deny", slog.Int64("user_id", p.UserID), slog.String("role", string(p.Role)), slog.String("path", r.URL.Path))
				}
				httpx.RespondError(w, shared.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireBackOffice admits admins and managers.
func (m Middleware) RequireBackOffice() func(http.Handler) http.Handler {
	return m.RequireRole(shared.BackOfficeRoles()...)
}
