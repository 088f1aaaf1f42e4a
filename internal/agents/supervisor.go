package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/TThanhhDatt/agent-bot/internal/graph"
	"github.com/TThanhhDatt/agent-bot/internal/tools"
	"github.com/TThanhhDatt/agent-bot/pkg/llm"
	"github.com/TThanhhDatt/agent-bot/pkg/logger"
)

// historyWindow bounds how many prior messages are replayed to a model.
const historyWindow = 20

// Supervisor classifies the turn's input and routes it to one specialist. It records the
// input as a user message, so it must run exactly once per turn.
type Supervisor struct {
	classifier llm.Client
	model      string
	log        *logger.Logger
	now        func() time.Time
}

// NewSupervisor builds the routing node. A nil classifier routes every turn to product.
func NewSupervisor(classifier llm.Client, model string, log *logger.Logger) *Supervisor {
	return &Supervisor{classifier: classifier, model: model, log: log, now: time.Now}
}

func (s *Supervisor) Run(ctx context.Context, state graph.ConversationState) (graph.Update, error) {
	next, err := s.classify(ctx, state)
	if err != nil {
		return graph.Update{}, err
	}
	if s.log != nil {
		s.log.Info(s.log.WithField(ctx, "next", string(next)), "supervisor routed turn")
	}
	return graph.Update{
		Messages: []graph.Message{{Role: graph.RoleUser, Content: state.Input, CreatedAt: s.now().UTC()}},
		Next:     next,
	}, nil
}

func (s *Supervisor) classify(ctx context.Context, state graph.ConversationState) (graph.Target, error) {
	if s.classifier == nil {
		return graph.TargetProduct, nil
	}
	system := supervisorPrompt + fmt.Sprintf("\n\nCustomer's orders:\n%s\nCustomer's cart:\n%s",
		tools.DescribeOrders(state), tools.DescribeCart(state))

	msgs := []llm.ChatMessage{{Role: llm.RoleSystem, Content: system}}
	msgs = append(msgs, transcript(state.Messages)...)
	msgs = append(msgs, llm.ChatMessage{Role: llm.RoleUser, Content: state.Input})

	resp, err := s.classifier.Complete(ctx, &llm.CompletionRequest{
		Model:       s.model,
		Messages:    msgs,
		MaxTokens:   32,
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("classify turn: %w", err)
	}
	next, ok := parseRoute(resp.Content)
	if !ok {
		if s.log != nil {
			s.log.Warn(ctx, fmt.Sprintf("supervisor could not parse route %q, using product", resp.Content))
		}
		return graph.TargetProduct, nil
	}
	return next, nil
}

type routeDecision struct {
	Next string `json:"next"`
}

// parseRoute accepts {"next": "..."} or a bare target name. Dashes and an "_agent" suffix are
// tolerated so "modify-order" and "order_agent" both resolve.
func parseRoute(raw string) (graph.Target, bool) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.Trim(raw, "`\n ")

	value := raw
	var decision routeDecision
	if err := json.Unmarshal([]byte(raw), &decision); err == nil {
		value = decision.Next
	}
	value = strings.ToLower(strings.Trim(strings.TrimSpace(value), `"'.`))
	value = strings.ReplaceAll(value, "-", "_")
	value = strings.TrimSuffix(value, "_agent")
	return graph.ParseTarget(value)
}

// transcript replays the recent user and final assistant messages. Tool traffic is left out.
func transcript(messages []graph.Message) []llm.ChatMessage {
	out := make([]llm.ChatMessage, 0, len(messages))
	for _, m := range messages {
		switch {
		case m.Role == graph.RoleUser:
			out = append(out, llm.ChatMessage{Role: llm.RoleUser, Content: m.Content})
		case m.Role == graph.RoleAssistant && len(m.ToolCalls) == 0 && m.Content != "":
			out = append(out, llm.ChatMessage{Role: llm.RoleAssistant, Content: m.Content})
		}
	}
	if len(out) > historyWindow {
		out = out[len(out)-historyWindow:]
	}
	return out
}
