package agents

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/TThanhhDatt/agent-bot/internal/graph"
	"github.com/TThanhhDatt/agent-bot/internal/tools"
	"github.com/TThanhhDatt/agent-bot/pkg/llm"
	"github.com/TThanhhDatt/agent-bot/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "agents-test", Output: &bytes.Buffer{}})
}

type scriptStep struct {
	resp *llm.CompletionResponse
	err  error
}

// scriptedLLM replays canned responses in order and records every request.
type scriptedLLM struct {
	t        *testing.T
	steps    []scriptStep
	requests []*llm.CompletionRequest
}

func (s *scriptedLLM) Complete(_ context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	s.requests = append(s.requests, req)
	if len(s.steps) == 0 {
		s.t.Fatalf("unexpected completion request #%d", len(s.requests))
		return nil, errors.New("script exhausted")
	}
	step := s.steps[0]
	s.steps = s.steps[1:]
	return step.resp, step.err
}

func (s *scriptedLLM) Name() string { return "scripted" }

func text(content string) scriptStep {
	return scriptStep{resp: &llm.CompletionResponse{Content: content}}
}

func calls(tc ...llm.ToolCall) scriptStep {
	return scriptStep{resp: &llm.CompletionResponse{ToolCalls: tc}}
}

func fail(err error) scriptStep {
	return scriptStep{err: err}
}

type catalogFixture struct {
	productID uuid.UUID
	variantID uuid.UUID
}

func stateWithProduct(input string) (graph.ConversationState, catalogFixture) {
	fx := catalogFixture{productID: uuid.New(), variantID: uuid.New()}
	state := graph.NewState("chat-1", uuid.New())
	state.SeenProducts[fx.productID] = graph.SeenProduct{
		ID:    fx.productID,
		Name:  "Green Tea Serum",
		Brand: "Hana",
		Variances: map[uuid.UUID]graph.Variance{
			fx.variantID: {ID: fx.variantID, VarName: "Size", Value: "30ml", Price: 100000},
		},
	}
	state.Input = input
	return state, fx
}

// Stores that a test never expects to be called; any call panics on the nil embedded interface.
type unusedCatalog struct{ tools.Catalog }

type unusedOrders struct{ tools.OrderStore }
