package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/TThanhhDatt/agent-bot/api/middleware"
	"github.com/TThanhhDatt/agent-bot/api/responses"
	"github.com/TThanhhDatt/agent-bot/api/validators"
	"github.com/TThanhhDatt/agent-bot/internal/chat"
	"github.com/TThanhhDatt/agent-bot/pkg/db/models"
	"github.com/TThanhhDatt/agent-bot/pkg/enums"
	pkgerrors "github.com/TThanhhDatt/agent-bot/pkg/errors"
	"github.com/TThanhhDatt/agent-bot/pkg/logger"
)

type controlRequest struct {
	ChatID string `json:"chat_id" validate:"required,max=255"`
}

type controlResponse struct {
	ChatID         string            `json:"chat_id"`
	ControlMode    enums.ControlMode `json:"control_mode"`
	ModeSwitchedAt *time.Time        `json:"mode_switched_at,omitempty"`
	Message        string            `json:"message"`
}

// AdminTakeover hands a conversation to a human operator; the bot stays silent until release.
func AdminTakeover(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return controlHandler(svc, logg, enums.ControlModeAdmin)
}

// AdminRelease returns a conversation to the bot.
func AdminRelease(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return controlHandler(svc, logg, enums.ControlModeBot)
}

func controlHandler(svc chat.Service, logg *logger.Logger, mode enums.ControlMode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chat service unavailable"))
			return
		}

		var req controlRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		chatID := validators.SanitizeString(req.ChatID, maxChatIDLength)

		var (
			customer *models.Customer
			err      error
			message  string
		)
		if mode == enums.ControlModeAdmin {
			customer, err = svc.Takeover(r.Context(), chatID)
			message = fmt.Sprintf("Conversation %s is now under ADMIN control.", chatID)
		} else {
			customer, err = svc.Release(r.Context(), chatID)
			message = fmt.Sprintf("Conversation %s has been released back to BOT control.", chatID)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if logg != nil {
			ctx := logg.WithFields(r.Context(), map[string]any{
				"chat_id":      chatID,
				"control_mode": string(customer.ControlMode),
				"operator":     middleware.SubjectFromContext(r.Context()),
			})
			logg.Info(ctx, "conversation control changed")
		}

		responses.WriteSuccess(w, controlResponse{
			ChatID:         customer.ChatID,
			ControlMode:    customer.ControlMode,
			ModeSwitchedAt: customer.ModeSwitchedAt,
			Message:        message,
		})
	}
}
