package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/TThanhhDatt/agent-bot/internal/customers"
	"github.com/TThanhhDatt/agent-bot/internal/graph"
	"github.com/TThanhhDatt/agent-bot/pkg/db/models"
	"github.com/TThanhhDatt/agent-bot/pkg/logger"
)

const NameUpdateCustomerProfile = "update_customer_profile"

// ProfileStore persists customer profile changes.
type ProfileStore interface {
	UpdateProfile(ctx context.Context, id uuid.UUID, profile customers.ProfileUpdate) (*models.Customer, error)
}

type profileArgs struct {
	Name        *string `json:"name"`
	PhoneNumber *string `json:"phone_number"`
	Address     *string `json:"address"`
	Email       *string `json:"email"`
}

var profileSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "name": {"type": "string", "description": "Customer name"},
    "phone_number": {"type": "string", "description": "Customer phone number"},
    "address": {"type": "string", "description": "Delivery address"},
    "email": {"type": "string", "description": "Email address"}
  }
}`)

// NewProfileTool returns update_customer_profile.
func NewProfileTool(store ProfileStore, log *logger.Logger) Tool {
	r := reporter{log: log}
	return &funcTool[profileArgs]{
		name:        NameUpdateCustomerProfile,
		description: "Save the customer's name, phone number, address or email. Only pass the fields the customer provided.",
		params:      profileSchema,
		run: func(ctx context.Context, state graph.ConversationState, args profileArgs) (Result, error) {
			update := customers.ProfileUpdate{
				Name:        nonBlank(args.Name),
				PhoneNumber: nonBlank(args.PhoneNumber),
				Address:     nonBlank(args.Address),
				Email:       nonBlank(args.Email),
			}
			if update.Empty() {
				return say("The customer must provide at least one of name, phone number, address or email. Ask the customer."), nil
			}
			if state.CustomerID == uuid.Nil {
				return r.failure(ctx, "update_customer_profile: customer id missing from state", errors.New("customer id not resolved"))
			}

			stored, err := store.UpdateProfile(ctx, state.CustomerID, update)
			if err != nil {
				return r.failure(ctx, "update_customer_profile: update profile", err)
			}
			if stored == nil {
				return r.partial(ctx, "update_customer_profile: customer missing after update", fmt.Errorf("customer %s not found", state.CustomerID))
			}

			var b strings.Builder
			b.WriteString("Customer information saved:\n")
			fmt.Fprintf(&b, "- Name: %s\n", orDefault(stored.Name, "Not provided"))
			fmt.Fprintf(&b, "- Phone number: %s\n", orDefault(stored.PhoneNumber, "Not provided"))
			fmt.Fprintf(&b, "- Address: %s\n", orDefault(stored.Address, "Not provided"))
			fmt.Fprintf(&b, "- Email: %s\n", orDefault(stored.Email, "Not provided"))
			return Result{
				Content: b.String(),
				Update: graph.Update{
					Name:        stored.Name,
					PhoneNumber: stored.PhoneNumber,
					Address:     stored.Address,
					Email:       stored.Email,
				},
			}, nil
		},
	}
}
