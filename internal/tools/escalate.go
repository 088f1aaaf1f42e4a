package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/TThanhhDatt/agent-bot/internal/escalations"
	"github.com/TThanhhDatt/agent-bot/internal/graph"
	"github.com/TThanhhDatt/agent-bot/pkg/db/models"
	"github.com/TThanhhDatt/agent-bot/pkg/logger"
)

const NameEscalateToStaff = "escalate_to_staff"

// Escalator hands a conversation to staff.
type Escalator interface {
	Raise(ctx context.Context, input escalations.RaiseInput) (*models.Escalation, error)
}

type escalateArgs struct {
	Summary string `json:"summary"`
}

var escalateSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "summary": {"type": "string", "description": "Short summary of what the customer needs from staff"}
  },
  "required": ["summary"]
}`)

// NewEscalationTool returns escalate_to_staff.
func NewEscalationTool(escalator Escalator, log *logger.Logger) Tool {
	r := reporter{log: log}
	return &funcTool[escalateArgs]{
		name:        NameEscalateToStaff,
		description: "Hand the conversation to a human staff member when the request is outside what the assistant can do.",
		params:      escalateSchema,
		run: func(ctx context.Context, state graph.ConversationState, args escalateArgs) (Result, error) {
			summary := strings.TrimSpace(args.Summary)
			if summary == "" {
				return say("Summarize what the customer needs before escalating."), nil
			}
			if state.CustomerID == uuid.Nil {
				return r.failure(ctx, "escalate_to_staff: customer id missing from state", errors.New("customer id not resolved"))
			}

			input := escalations.RaiseInput{
				CustomerID: state.CustomerID,
				SessionID:  state.SessionID,
				ChatID:     state.ChatID,
				Summary:    summary,
			}
			if state.Name != nil {
				input.CustomerName = *state.Name
			}
			if state.PhoneNumber != nil {
				input.PhoneNumber = *state.PhoneNumber
			}
			if _, err := escalator.Raise(ctx, input); err != nil {
				return r.failure(ctx, "escalate_to_staff: raise escalation", err)
			}
			return say("The request has been passed to our support team. Tell the customer a staff member will contact them soon."), nil
		},
	}
}
