package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicModel = "claude-3-5-haiku-20241022"

// AnthropicClient is the Anthropic LLM client. It serves plain completions only and is used
// as an alternative intent classifier.
type AnthropicClient struct {
	client *anthropic.Client
}

// NewAnthropicClient creates a new Anthropic client.
func NewAnthropicClient(apiKey string) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, errors.New("Anthropic API key is required")
	}
	return &AnthropicClient{client: anthropic.NewClient(option.WithAPIKey(apiKey))}, nil
}

// Name returns the provider name.
func (c *AnthropicClient) Name() string {
	return string(ProviderAnthropic)
}

// Complete sends a completion request.
func (c *AnthropicClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	if req == nil {
		return nil, errors.New("completion request is required")
	}
	if len(req.Tools) > 0 {
		return nil, ErrToolsUnsupported
	}
	start := time.Now()

	model := req.Model
	if model == "" || strings.HasPrefix(model, "gpt-") {
		model = defaultAnthropicModel
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.F(model),
		MaxTokens: anthropic.F(int64(maxTokens)),
		Messages:  anthropic.F(toAnthropicMessages(req.Messages)),
	})
	if err != nil {
		return nil, err
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == anthropic.ContentBlockTypeText {
			content += block.Text
		}
	}

	return &CompletionResponse{
		Content:    content,
		Model:      resp.Model,
		TokensIn:   int(resp.Usage.InputTokens),
		TokensOut:  int(resp.Usage.OutputTokens),
		StopReason: string(resp.StopReason),
		LatencyMs:  time.Since(start).Milliseconds(),
	}, nil
}

func toAnthropicMessages(msgs []ChatMessage) []anthropic.MessageParam {
	turns := flattenForAnthropic(msgs)
	out := make([]anthropic.MessageParam, len(turns))
	for i, msg := range turns {
		out[i] = anthropic.MessageParam{
			Role: anthropic.F(anthropic.MessageParamRole(msg.Role)),
			Content: anthropic.F([]anthropic.ContentBlockParamUnion{
				anthropic.TextBlockParam{
					Type: anthropic.F(anthropic.TextBlockParamTypeText),
					Text: anthropic.F(msg.Content),
				},
			}),
		}
	}
	return out
}

// flattenForAnthropic folds system prompts into the first user turn, drops tool traffic, and
// joins consecutive turns of the same role, since the Messages API only accepts alternating
// user/assistant turns.
func flattenForAnthropic(msgs []ChatMessage) []ChatMessage {
	var system []string
	var out []ChatMessage
	for _, msg := range msgs {
		switch msg.Role {
		case RoleSystem:
			system = append(system, msg.Content)
			continue
		case RoleTool:
			continue
		}
		if msg.Role == RoleAssistant && len(msg.ToolCalls) > 0 && msg.Content == "" {
			continue
		}
		role := RoleUser
		if msg.Role == RoleAssistant {
			role = RoleAssistant
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Content += "\n" + msg.Content
			continue
		}
		out = append(out, ChatMessage{Role: role, Content: msg.Content})
	}
	if len(system) > 0 {
		prefix := strings.Join(system, "\n")
		if len(out) == 0 || out[0].Role != RoleUser {
			out = append([]ChatMessage{{Role: RoleUser, Content: prefix}}, out...)
		} else {
			out[0].Content = prefix + "\n\n" + out[0].Content
		}
	}
	return out
}
