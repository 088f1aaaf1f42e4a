package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TThanhhDatt/agent-bot/internal/graph"
	"github.com/TThanhhDatt/agent-bot/pkg/llm"
)

func TestParseRoute(t *testing.T) {
	cases := []struct {
		raw  string
		want graph.Target
		ok   bool
	}{
		{`{"next": "order"}`, graph.TargetOrder, true},
		{"```json\n{\"next\":\"modify_order\"}\n```", graph.TargetModifyOrder, true},
		{"product", graph.TargetProduct, true},
		{"modify-order", graph.TargetModifyOrder, true},
		{"order_agent", graph.TargetOrder, true},
		{`"Order".`, graph.TargetOrder, true},
		{`{"next": "refunds"}`, "", false},
		{"end", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := parseRoute(tc.raw)
		assert.Equal(t, tc.ok, ok, tc.raw)
		assert.Equal(t, tc.want, got, tc.raw)
	}
}

func TestSupervisorAppendsInputAndRoutes(t *testing.T) {
	state, _ := stateWithProduct("I want to cancel my order")
	state.Messages = []graph.Message{
		{Role: graph.RoleUser, Content: "hello"},
		{Role: graph.RoleAssistant, Content: "hi there", Name: "product"},
	}
	classifier := &scriptedLLM{t: t, steps: []scriptStep{text(`{"next":"modify_order"}`)}}
	sup := NewSupervisor(classifier, "router-model", testLogger())

	upd, err := sup.Run(context.Background(), state)

	require.NoError(t, err)
	assert.Equal(t, graph.TargetModifyOrder, upd.Next)
	require.Len(t, upd.Messages, 1)
	assert.Equal(t, graph.RoleUser, upd.Messages[0].Role)
	assert.Equal(t, "I want to cancel my order", upd.Messages[0].Content)
	assert.False(t, upd.Cart.IsSet())

	require.Len(t, classifier.requests, 1)
	req := classifier.requests[0]
	assert.Equal(t, "router-model", req.Model)
	assert.Empty(t, req.Tools)
	require.Len(t, req.Messages, 4)
	assert.Equal(t, llm.RoleSystem, req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "Customer's cart")
	assert.Equal(t, "I want to cancel my order", req.Messages[3].Content)
}

func TestSupervisorFallsBackToProduct(t *testing.T) {
	state, _ := stateWithProduct("???")

	t.Run("unparseable answer", func(t *testing.T) {
		classifier := &scriptedLLM{t: t, steps: []scriptStep{text("I think the customer wants help")}}
		upd, err := NewSupervisor(classifier, "m", testLogger()).Run(context.Background(), state)
		require.NoError(t, err)
		assert.Equal(t, graph.TargetProduct, upd.Next)
	})

	t.Run("no classifier", func(t *testing.T) {
		upd, err := NewSupervisor(nil, "", nil).Run(context.Background(), state)
		require.NoError(t, err)
		assert.Equal(t, graph.TargetProduct, upd.Next)
		require.Len(t, upd.Messages, 1)
	})
}

func TestSupervisorIsIdempotentForTheSameState(t *testing.T) {
	state, _ := stateWithProduct("place my order")
	before := state.Clone()
	classifier := &scriptedLLM{t: t, steps: []scriptStep{text("order"), text("order")}}
	sup := NewSupervisor(classifier, "m", testLogger())

	first, err := sup.Run(context.Background(), state)
	require.NoError(t, err)
	second, err := sup.Run(context.Background(), state)
	require.NoError(t, err)

	assert.Equal(t, first.Next, second.Next)
	require.Len(t, second.Messages, 1)
	assert.Equal(t, first.Messages[0].Content, second.Messages[0].Content)
	assert.Equal(t, before, state)

	merged := graph.Merge(state, second)
	assert.Len(t, merged.Messages, 1)
}

func TestSupervisorPropagatesClassifierErrors(t *testing.T) {
	state, _ := stateWithProduct("hi")
	boom := errors.New("rate limited")
	classifier := &scriptedLLM{t: t, steps: []scriptStep{fail(boom)}}

	_, err := NewSupervisor(classifier, "m", testLogger()).Run(context.Background(), state)

	require.ErrorIs(t, err, boom)
}
