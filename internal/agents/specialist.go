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

const (
	defaultMaxToolRounds = 6
	fallbackReply        = "Sorry, I could not finish that just now. Could you say it again in a different way?"
)

// Specialist answers a routed turn with a bounded tool-calling loop. Tool results are folded
// into a private working state so later calls in the same turn observe earlier changes; only
// the accumulated update and the final reply leave the node.
type Specialist struct {
	name        graph.Target
	client      llm.Client
	model       string
	prompt      string
	toolbox     *tools.Toolbox
	maxRounds   int
	temperature float64
	log         *logger.Logger
	now         func() time.Time
}

// SpecialistConfig carries the model settings shared by every specialist.
type SpecialistConfig struct {
	Client        llm.Client
	Model         string
	Temperature   float64
	MaxToolRounds int
	Logger        *logger.Logger
}

// NewSpecialist builds a specialist node named after its graph target.
func NewSpecialist(name graph.Target, prompt string, toolbox *tools.Toolbox, cfg SpecialistConfig) *Specialist {
	rounds := cfg.MaxToolRounds
	if rounds <= 0 {
		rounds = defaultMaxToolRounds
	}
	if toolbox == nil {
		toolbox = tools.NewToolbox()
	}
	return &Specialist{
		name:        name,
		client:      cfg.Client,
		model:       cfg.Model,
		prompt:      prompt,
		toolbox:     toolbox,
		maxRounds:   rounds,
		temperature: cfg.Temperature,
		log:         cfg.Logger,
		now:         time.Now,
	}
}

func (s *Specialist) Run(ctx context.Context, state graph.ConversationState) (graph.Update, error) {
	if s.client == nil {
		return graph.Update{}, fmt.Errorf("%s: no language model configured", s.name)
	}

	working := state
	var acc graph.Update
	msgs := s.conversation(working)
	specs := s.toolbox.Specs()

	for round := 0; round < s.maxRounds; round++ {
		resp, err := s.client.Complete(ctx, &llm.CompletionRequest{
			Model:       s.model,
			Messages:    msgs,
			Tools:       specs,
			Temperature: s.temperature,
		})
		if err != nil {
			return graph.Update{}, fmt.Errorf("%s completion: %w", s.name, err)
		}
		if len(resp.ToolCalls) == 0 {
			return s.finish(acc, resp.Content), nil
		}

		msgs = append(msgs, llm.ChatMessage{Role: llm.RoleAssistant, Content: resp.Content, ToolCalls: resp.ToolCalls})
		for _, call := range resp.ToolCalls {
			content, upd, err := s.invoke(ctx, working, call)
			if err != nil {
				return graph.Update{}, err
			}
			working = graph.Merge(working, upd)
			acc = acc.Then(upd)
			msgs = append(msgs, llm.ChatMessage{Role: llm.RoleTool, Name: call.Name, ToolCallID: call.ID, Content: content})
		}
		// The prompt context is rebuilt so the model sees the cart and orders as they are now.
		msgs[0] = llm.ChatMessage{Role: llm.RoleSystem, Content: s.system(working)}
	}

	// Out of tool rounds: ask once more without tools to force a text answer.
	resp, err := s.client.Complete(ctx, &llm.CompletionRequest{
		Model:       s.model,
		Messages:    msgs,
		Temperature: s.temperature,
	})
	if err != nil {
		return graph.Update{}, fmt.Errorf("%s completion: %w", s.name, err)
	}
	return s.finish(acc, resp.Content), nil
}

func (s *Specialist) invoke(ctx context.Context, state graph.ConversationState, call llm.ToolCall) (string, graph.Update, error) {
	tool, ok := s.toolbox.Lookup(call.Name)
	if !ok {
		return fmt.Sprintf("Tool %q does not exist. Available tools: %s.", call.Name, strings.Join(s.toolbox.Names(), ", ")), graph.Update{}, nil
	}
	args := json.RawMessage(call.Arguments)
	if strings.TrimSpace(call.Arguments) == "" {
		args = json.RawMessage(`{}`)
	}
	res, err := tool.Invoke(ctx, state, args)
	if err != nil {
		return "", graph.Update{}, fmt.Errorf("tool %s: %w", call.Name, err)
	}
	if s.log != nil {
		s.log.Info(s.log.WithFields(ctx, map[string]any{"agent": string(s.name), "tool": call.Name}), "tool invoked")
	}
	return res.Content, res.Update, nil
}

func (s *Specialist) finish(acc graph.Update, content string) graph.Update {
	content = strings.TrimSpace(content)
	if content == "" {
		content = fallbackReply
	}
	acc.Messages = append(acc.Messages, graph.Message{
		Role:      graph.RoleAssistant,
		Content:   content,
		Name:      string(s.name),
		CreatedAt: s.now().UTC(),
	})
	acc.Next = graph.TargetEnd
	return acc
}

func (s *Specialist) conversation(state graph.ConversationState) []llm.ChatMessage {
	msgs := []llm.ChatMessage{{Role: llm.RoleSystem, Content: s.system(state)}}
	return append(msgs, transcript(state.Messages)...)
}

func (s *Specialist) system(state graph.ConversationState) string {
	return s.prompt + fmt.Sprintf(contextTemplate,
		tools.DescribeCustomer(state),
		tools.DescribeCart(state),
		tools.DescribeOrders(state),
		tools.DescribeSeenProducts(state),
	)
}
