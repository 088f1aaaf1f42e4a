package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/TThanhhDatt/agent-bot/api/responses"
	pkgAuth "github.com/TThanhhDatt/agent-bot/pkg/auth"
	"github.com/TThanhhDatt/agent-bot/pkg/config"
	pkgerrors "github.com/TThanhhDatt/agent-bot/pkg/errors"
	"github.com/TThanhhDatt/agent-bot/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with its subject and role.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			if claims.Subject == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing subject"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxSubject, claims.Subject)
			ctx = context.WithValue(ctx, ctxRole, claims.Role)
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"subject":    claims.Subject,
					"actor_role": string(claims.Role),
					"token_id":   claims.ID,
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(raw string) string {
	token := strings.TrimSpace(raw)
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}
