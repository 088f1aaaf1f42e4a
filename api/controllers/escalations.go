package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/TThanhhDatt/agent-bot/api/responses"
	"github.com/TThanhhDatt/agent-bot/api/validators"
	"github.com/TThanhhDatt/agent-bot/internal/escalations"
	pkgerrors "github.com/TThanhhDatt/agent-bot/pkg/errors"
	"github.com/TThanhhDatt/agent-bot/pkg/logger"
)

// AdminListEscalations returns escalations newest first, optionally only the open ones.
func AdminListEscalations(svc escalations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "escalations service unavailable"))
			return
		}

		query, err := validators.ParseListQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := escalations.ListParams{Limit: query.Limit, Cursor: query.Cursor, OpenOnly: query.OpenOnly}

		resp, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// AdminResolveEscalation marks an escalation as handled.
func AdminResolveEscalation(svc escalations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "escalations service unavailable"))
			return
		}

		id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "escalationId")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid escalation id"))
			return
		}
		if err := svc.Resolve(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"resolved": true})
	}
}
