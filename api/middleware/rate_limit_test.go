package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type memoryCounter struct {
	counts map[string]int64
}

func (m *memoryCounter) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	if m.counts == nil {
		m.counts = map[string]int64{}
	}
	m.counts[key]++
	return m.counts[key], nil
}

func (m *memoryCounter) RateLimitKey(scope string) string { return "rl:" + scope }

func TestRateLimitBlocksChatAfterLimit(t *testing.T) {
	store := &memoryCounter{}
	var seen []string
	handler := RateLimit(NewRateLimitPolicy("chat", time.Minute, 0, 2), store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		seen = append(seen, string(body))
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/chat/invoke", strings.NewReader(`{"chat_id":"c1","user_input":"hi"}`))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		codes = append(codes, resp.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence %v", codes)
	}
	if len(seen) != 2 || seen[0] != `{"chat_id":"c1","user_input":"hi"}` {
		t.Fatalf("body was not restored for the handler: %v", seen)
	}

	req := httptest.NewRequest(http.MethodPost, "/chat/invoke", strings.NewReader(`{"chat_id":"c2","user_input":"hi"}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("other chats must not share the counter, got %d", resp.Code)
	}
}

func TestRateLimitByIP(t *testing.T) {
	handler := RateLimit(NewRateLimitPolicy("chat", time.Minute, 1, 0), &memoryCounter{}, nil)(okHandler())

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1, 172.16.0.1")
	handler.ServeHTTP(first, req)

	second := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1")
	handler.ServeHTTP(second, req)

	if first.Code != http.StatusOK || second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 200 then 429, got %d then %d", first.Code, second.Code)
	}
}

func TestRateLimitDisabledWithoutWindow(t *testing.T) {
	store := &memoryCounter{}
	handler := RateLimit(NewRateLimitPolicy("chat", 0, 1, 1), store, nil)(okHandler())
	for i := 0; i < 3; i++ {
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"chat_id":"c1"}`)))
		if resp.Code != http.StatusOK {
			t.Fatalf("expected pass-through, got %d", resp.Code)
		}
	}
	if len(store.counts) != 0 {
		t.Fatalf("disabled policy must not touch the store")
	}
}
