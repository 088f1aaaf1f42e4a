package controllers

import (
	"context"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/TThanhhDatt/agent-bot/internal/chat"
	"github.com/TThanhhDatt/agent-bot/internal/escalations"
	"github.com/TThanhhDatt/agent-bot/pkg/db/models"
	"github.com/TThanhhDatt/agent-bot/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

type webhookCall struct {
	chatID string
	input  string
	spans  []chat.Span
}

type stubChatService struct {
	mu         sync.Mutex
	status     int
	text       string
	invokes    []string
	webhooks   []webhookCall
	takeoverFn func(ctx context.Context, chatID string) (*models.Customer, error)
	releaseFn  func(ctx context.Context, chatID string) (*models.Customer, error)
}

func (s *stubChatService) HandleInvoke(_ context.Context, chatID, input string) (int, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invokes = append(s.invokes, chatID+"|"+input)
	return s.status, s.text
}

func (s *stubChatService) HandleWebhook(_ context.Context, chatID, input string, spans []chat.Span) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.webhooks = append(s.webhooks, webhookCall{chatID: chatID, input: input, spans: spans})
}

func (s *stubChatService) Takeover(ctx context.Context, chatID string) (*models.Customer, error) {
	return s.takeoverFn(ctx, chatID)
}

func (s *stubChatService) Release(ctx context.Context, chatID string) (*models.Customer, error) {
	return s.releaseFn(ctx, chatID)
}

func (s *stubChatService) Wait() {}

type stubEscalations struct {
	listFn    func(ctx context.Context, params escalations.ListParams) (*escalations.ListResult, error)
	resolveFn func(ctx context.Context, id uuid.UUID) error
}

func (s *stubEscalations) Raise(context.Context, escalations.RaiseInput) (*models.Escalation, error) {
	return nil, nil
}

func (s *stubEscalations) List(ctx context.Context, params escalations.ListParams) (*escalations.ListResult, error) {
	return s.listFn(ctx, params)
}

func (s *stubEscalations) Resolve(ctx context.Context, id uuid.UUID) error {
	return s.resolveFn(ctx, id)
}
