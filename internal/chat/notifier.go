package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/TThanhhDatt/agent-bot/pkg/errors"
)

const (
	defaultCallbackTimeout       = 30 * time.Second
	callbackBodyReadLimit  int64 = 1024
	callbackAckReadLimit   int64 = 64 << 10
)

// Callback is the payload delivered to the channel gateway for a webhook turn.
type Callback struct {
	ChatID   string `json:"chat_id"`
	Response string `json:"response"`
}

// Notifier delivers webhook turn results. The returned span, when present, is the gateway's
// own measurement of the outbound hop.
type Notifier interface {
	Notify(ctx context.Context, cb Callback) (*Span, error)
}

// HTTPNotifier posts callbacks as JSON to a fixed URL.
type HTTPNotifier struct {
	httpClient *http.Client
	url        string
}

// NotifierOption configures optional notifier behavior.
type NotifierOption func(*HTTPNotifier)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) NotifierOption {
	return func(n *HTTPNotifier) {
		if client != nil {
			n.httpClient = client
		}
	}
}

// NewHTTPNotifier builds a notifier for callbackURL with the given request timeout.
func NewHTTPNotifier(callbackURL string, timeout time.Duration, opts ...NotifierOption) (*HTTPNotifier, error) {
	trimmed := strings.TrimSpace(callbackURL)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "callback url is required")
	}
	if timeout <= 0 {
		timeout = defaultCallbackTimeout
	}
	n := &HTTPNotifier{url: trimmed, httpClient: &http.Client{Timeout: timeout}}
	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}
	return n, nil
}

func (n *HTTPNotifier) Notify(ctx context.Context, cb Callback) (*Span, error) {
	if n == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "callback notifier not configured")
	}
	payload, err := json.Marshal(cb)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal callback")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build callback request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "execute callback request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, callbackBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "callback request failed")
	}

	var ack struct {
		MessageSpan *Span `json:"message_span"`
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, callbackAckReadLimit+1))
	if err != nil || int64(len(body)) > callbackAckReadLimit || len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(body, &ack); err != nil {
		// The gateway acknowledged delivery; an unreadable body only loses its span.
		return nil, nil
	}
	return ack.MessageSpan, nil
}
