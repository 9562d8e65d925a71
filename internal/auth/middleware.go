package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/monstter/backoffice/internal/platform/httpx"
	"github.com/monstter/backoffice/internal/shared"
)

// Authenticate rejects requests without a valid bearer token and stores the principal in context.
func Authenticate(v *Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				httpx.RespondError(w, shared.ErrUnauthorized)
				return
			}
			principal, err := v.Verify(raw)
			if err != nil {
				if logger != nil {
					logger.Debug("reject token", slog.Any("error", err))
				}
				httpx.RespondError(w, shared.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
