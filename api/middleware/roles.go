package middleware

import (
	"net/http"
	"slices"

	"github.com/TThanhhDatt/agent-bot/api/responses"
	"github.com/TThanhhDatt/agent-bot/pkg/enums"
	pkgerrors "github.com/TThanhhDatt/agent-bot/pkg/errors"
	"github.com/TThanhhDatt/agent-bot/pkg/logger"
)

// RequireRole admits requests whose authenticated actor role is one of allowed. It must run
// after Auth; a request without a role is refused the same way as a wrong one.
func RequireRole(logg *logger.Logger, allowed ...enums.ActorRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			if !role.IsValid() || !slices.Contains(allowed, role) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "actor role not permitted"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
