package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TThanhhDatt/agent-bot/internal/escalations"
	"github.com/TThanhhDatt/agent-bot/pkg/db/models"
	"github.com/TThanhhDatt/agent-bot/pkg/enums"
	pkgerrors "github.com/TThanhhDatt/agent-bot/pkg/errors"
)

func TestAdminTakeoverReturnsControlState(t *testing.T) {
	switched := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	svc := &stubChatService{takeoverFn: func(_ context.Context, chatID string) (*models.Customer, error) {
		return &models.Customer{ChatID: chatID, ControlMode: enums.ControlModeAdmin, ModeSwitchedAt: &switched}, nil
	}}
	req := httptest.NewRequest(http.MethodPost, "/admin/v1/conversations/takeover", strings.NewReader(`{"chat_id":"42"}`))
	resp := httptest.NewRecorder()

	AdminTakeover(svc, testLogger())(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	var envelope struct {
		Data controlResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, enums.ControlModeAdmin, envelope.Data.ControlMode)
	require.NotNil(t, envelope.Data.ModeSwitchedAt)
	assert.True(t, envelope.Data.ModeSwitchedAt.Equal(switched))
}

func TestAdminReleaseUnknownChatIs404(t *testing.T) {
	svc := &stubChatService{releaseFn: func(context.Context, string) (*models.Customer, error) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "chat id not found")
	}}
	req := httptest.NewRequest(http.MethodPost, "/admin/v1/conversations/release", strings.NewReader(`{"chat_id":"nobody"}`))
	resp := httptest.NewRecorder()

	AdminRelease(svc, testLogger())(resp, req)

	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestAdminListEscalationsParsesQuery(t *testing.T) {
	var got escalations.ListParams
	svc := &stubEscalations{listFn: func(_ context.Context, params escalations.ListParams) (*escalations.ListResult, error) {
		got = params
		return &escalations.ListResult{Items: []models.Escalation{{ChatID: "42", Summary: "wants a refund"}}}, nil
	}}
	req := httptest.NewRequest(http.MethodGet, "/admin/v1/escalations?limit=10&openOnly=true&cursor=abc", nil)
	resp := httptest.NewRecorder()

	AdminListEscalations(svc, testLogger())(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, escalations.ListParams{Limit: 10, Cursor: "abc", OpenOnly: true}, got)
	assert.Contains(t, resp.Body.String(), `"summary":"wants a refund"`)
}

func TestAdminListEscalationsRejectsBadFlag(t *testing.T) {
	svc := &stubEscalations{}
	req := httptest.NewRequest(http.MethodGet, "/admin/v1/escalations?openOnly=maybe", nil)
	resp := httptest.NewRecorder()

	AdminListEscalations(svc, testLogger())(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestAdminResolveEscalation(t *testing.T) {
	id := uuid.New()
	var resolved uuid.UUID
	svc := &stubEscalations{resolveFn: func(_ context.Context, got uuid.UUID) error {
		resolved = got
		return nil
	}}
	req := httptest.NewRequest(http.MethodPost, "/admin/v1/escalations/"+id.String()+"/resolve", nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("escalationId", id.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
	resp := httptest.NewRecorder()

	AdminResolveEscalation(svc, testLogger())(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, id, resolved)
}
