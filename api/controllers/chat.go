package controllers

import (
	"net/http"

	"github.com/TThanhhDatt/agent-bot/api/responses"
	"github.com/TThanhhDatt/agent-bot/api/validators"
	"github.com/TThanhhDatt/agent-bot/internal/chat"
	pkgerrors "github.com/TThanhhDatt/agent-bot/pkg/errors"
	"github.com/TThanhhDatt/agent-bot/pkg/logger"
)

const (
	maxChatIDLength    = 255
	maxUserInputLength = 4000
	webhookAck         = "OK"
)

type invokeRequest struct {
	ChatID    string  `json:"chat_id" validate:"required,max=255"`
	UserInput string  `json:"user_input" validate:"required"`
	ImageURL  *string `json:"image_url,omitempty" validate:"omitempty,url"`
}

type webhookRequest struct {
	ChatID       string      `json:"chat_id" validate:"required,max=255"`
	UserInput    string      `json:"user_input" validate:"required"`
	MessageSpans []chat.Span `json:"message_spans"`
}

// ChatInvoke runs one turn synchronously and answers with the reply as plain text.
func ChatInvoke(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chat service unavailable"))
			return
		}

		var req invokeRequest
		if err := validators.DecodeLenientJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		chatID := validators.SanitizeString(req.ChatID, maxChatIDLength)
		input := validators.SanitizeString(req.UserInput, maxUserInputLength)

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithChatID(ctx, chatID)
			if req.ImageURL != nil {
				logg.Info(logg.WithField(ctx, "image_url", *req.ImageURL), "image attachment ignored")
			}
		}

		status, text := svc.HandleInvoke(ctx, chatID, input)
		responses.WriteText(w, status, text)
	}
}

// ChatWebhook accepts a turn for background processing and acknowledges immediately. The
// reply is delivered through the configured callback.
func ChatWebhook(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chat service unavailable"))
			return
		}

		var req webhookRequest
		if err := validators.DecodeLenientJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		chatID := validators.SanitizeString(req.ChatID, maxChatIDLength)

		svc.HandleWebhook(r.Context(), chatID, validators.SanitizeString(req.UserInput, maxUserInputLength), req.MessageSpans)
		responses.WriteText(w, http.StatusOK, webhookAck)
	}
}
