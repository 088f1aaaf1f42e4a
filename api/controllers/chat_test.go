package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TThanhhDatt/agent-bot/pkg/enums"
)

func TestChatInvokeWritesPlainText(t *testing.T) {
	svc := &stubChatService{status: http.StatusOK, text: "Dạ, em chào anh/chị!"}
	req := httptest.NewRequest(http.MethodPost, "/chat/invoke", strings.NewReader(`{"chat_id":" 42 ","user_input":"hello","source":"zalo"}`))
	resp := httptest.NewRecorder()

	ChatInvoke(svc, testLogger())(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Dạ, em chào anh/chị!", resp.Body.String())
	assert.Contains(t, resp.Header().Get("Content-Type"), "text/plain")
	assert.Equal(t, []string{"42|hello"}, svc.invokes)
}

func TestChatInvokePassesFailureStatusThrough(t *testing.T) {
	svc := &stubChatService{status: http.StatusInternalServerError, text: "sorry"}
	req := httptest.NewRequest(http.MethodPost, "/chat/invoke", strings.NewReader(`{"chat_id":"42","user_input":"hello"}`))
	resp := httptest.NewRecorder()

	ChatInvoke(svc, testLogger())(resp, req)

	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Equal(t, "sorry", resp.Body.String())
}

func TestChatInvokeRejectsMissingFields(t *testing.T) {
	svc := &stubChatService{}
	req := httptest.NewRequest(http.MethodPost, "/chat/invoke", strings.NewReader(`{"chat_id":"42"}`))
	resp := httptest.NewRecorder()

	ChatInvoke(svc, testLogger())(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Empty(t, svc.invokes)
}

func TestChatWebhookAcknowledgesImmediately(t *testing.T) {
	svc := &stubChatService{}
	body := `{"chat_id":"42","user_input":"hi","message_spans":[{"timestamp_start":"2025-03-01T10:00:00Z","timestamp_end":"2025-03-01T10:00:01Z","step_name":"receive","service_name":"gateway","direction":"inbound","status":"ok"}]}`
	req := httptest.NewRequest(http.MethodPost, "/chat/webhook", strings.NewReader(body))
	resp := httptest.NewRecorder()

	ChatWebhook(svc, testLogger())(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "OK", resp.Body.String())
	require.Len(t, svc.webhooks, 1)
	assert.Equal(t, "42", svc.webhooks[0].chatID)
	require.Len(t, svc.webhooks[0].spans, 1)
	assert.Equal(t, enums.SpanDirectionInbound, svc.webhooks[0].spans[0].Direction)
	assert.Equal(t, "gateway", svc.webhooks[0].spans[0].ServiceName)
}

func TestChatWebhookRejectsInvalidJSON(t *testing.T) {
	svc := &stubChatService{}
	req := httptest.NewRequest(http.MethodPost, "/chat/webhook", strings.NewReader(`{"chat_id":`))
	resp := httptest.NewRecorder()

	ChatWebhook(svc, testLogger())(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Empty(t, svc.webhooks)
}
