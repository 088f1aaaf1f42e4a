package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TThanhhDatt/agent-bot/pkg/enums"
	pkgerrors "github.com/TThanhhDatt/agent-bot/pkg/errors"
)

func TestNewHTTPNotifierRequiresURL(t *testing.T) {
	_, err := NewHTTPNotifier("  ", time.Second)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestNotifyPostsCallbackAndReadsAckSpan(t *testing.T) {
	var got Callback
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"message_span":{"timestamp_start":"2025-03-01T10:00:00Z","timestamp_end":"2025-03-01T10:00:01Z","step_name":"send","service_name":"gateway","direction":"outbound","status":"ok"}}`))
	}))
	defer srv.Close()

	n, err := NewHTTPNotifier(srv.URL, time.Second)
	require.NoError(t, err)

	ack, err := n.Notify(context.Background(), Callback{ChatID: "c1", Response: "hi"})

	require.NoError(t, err)
	assert.Equal(t, Callback{ChatID: "c1", Response: "hi"}, got)
	require.NotNil(t, ack)
	assert.Equal(t, enums.SpanDirectionOutbound, ack.Direction)
	assert.Equal(t, "gateway", ack.ServiceName)
}

func TestNotifyToleratesEmptyOrInvalidAck(t *testing.T) {
	for _, body := range []string{"", "OK"} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(body))
		}))
		n, err := NewHTTPNotifier(srv.URL, time.Second)
		require.NoError(t, err)

		ack, err := n.Notify(context.Background(), Callback{ChatID: "c1"})
		srv.Close()

		require.NoError(t, err, body)
		assert.Nil(t, ack, body)
	}
}

func TestNotifyDropsOversizedAck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		padding := strings.Repeat(" ", int(callbackAckReadLimit))
		_, _ = w.Write([]byte(`{"message_span":{"step_name":"send","direction":"outbound","status":"ok"}}` + padding))
	}))
	defer srv.Close()

	n, err := NewHTTPNotifier(srv.URL, time.Second)
	require.NoError(t, err)

	ack, err := n.Notify(context.Background(), Callback{ChatID: "c1"})
	require.NoError(t, err)
	assert.Nil(t, ack)
}

func TestNotifyReportsGatewayErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unknown chat", http.StatusBadGateway)
	}))
	defer srv.Close()

	n, err := NewHTTPNotifier(srv.URL, time.Second)
	require.NoError(t, err)

	_, err = n.Notify(context.Background(), Callback{ChatID: "c1"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUpstream))
	assert.Contains(t, err.Error(), "502")
}
