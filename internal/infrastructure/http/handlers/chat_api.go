package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/healthylife/server/internal/domain/assistant"
	"github.com/healthylife/server/internal/domain/shared"
	"github.com/healthylife/server/internal/infrastructure/http/middleware"
	"github.com/healthylife/server/internal/ports/inbound"
	apperrors "github.com/healthylife/server/pkg/errors"
)

const (
	maxChatMessages      = 50
	maxChatMessageLength = 4000
)

// ChatAPIHandlers handles nutrition coach requests
type ChatAPIHandlers struct {
	assistant inbound.AssistantService
	users     inbound.UserService
	limits    UploadLimits
	logger    *zap.Logger
}

// NewChatAPIHandlers creates chat handlers
func NewChatAPIHandlers(
	assistant inbound.AssistantService,
	users inbound.UserService,
	limits UploadLimits,
	logger *zap.Logger,
) *ChatAPIHandlers {
	return &ChatAPIHandlers{
		assistant: assistant,
		users:     users,
		limits:    limits,
		logger:    logger.Named("chat-api"),
	}
}

// ChatRequest is a conversation so far. Messages stays raw so a non-array
// value can be reported precisely.
type ChatRequest struct {
	Messages json.RawMessage `json:"messages"`
}

// Chat handles POST /api/chat
func (h *ChatAPIHandlers) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	messages, err := parseMessages(req.Messages)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())
	reply := h.assistant.Chat(r.Context(), assistant.ChatRequest{
		Messages:        messages,
		Diet:            h.diet(r, userID),
		ConversationKey: conversationKey(r, userID),
	})
	writeJSON(w, h.logger, http.StatusOK, reply)
}

// ChatImage handles POST /api/chat/image
func (h *ChatAPIHandlers) ChatImage(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r, h.limits); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	img, err := formImage(r, "image", h.limits)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if img == nil {
		writeError(w, r, h.logger, apperrors.NewAppError(apperrors.CodeImageRequired, "image is required", ""))
		return
	}

	reply, err := h.assistant.ChatImage(r.Context(), img.Image)
	if err != nil {
		writeError(w, r, h.logger, visionError(err))
		return
	}
	writeJSON(w, h.logger, http.StatusOK, reply)
}

func (h *ChatAPIHandlers) diet(r *http.Request, userID uuid.UUID) shared.DietPreference {
	if userID == uuid.Nil {
		return shared.DietVeg
	}
	return h.users.DietPreference(r.Context(), userID)
}

func parseMessages(raw json.RawMessage) ([]assistant.ChatMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, apperrors.NewBadRequestError("messages must be an array")
	}

	var messages []assistant.ChatMessage
	if err := json.Unmarshal(raw, &messages); err != nil {
		return nil, apperrors.NewBadRequestError("messages must be an array of {role, content}").WithCause(err)
	}
	if len(messages) > maxChatMessages {
		messages = messages[len(messages)-maxChatMessages:]
	}

	for i := range messages {
		switch messages[i].Role {
		case assistant.RoleAssistant, assistant.RoleSystem:
		default:
			messages[i].Role = assistant.RoleUser
		}
		if runes := []rune(messages[i].Content); len(runes) > maxChatMessageLength {
			messages[i].Content = string(runes[:maxChatMessageLength])
		}
	}
	return messages, nil
}

// conversationKey identifies the conversation for summaries: the user when
// signed in, else the client address
func conversationKey(r *http.Request, userID uuid.UUID) string {
	if userID != uuid.Nil {
		return userID.String()
	}
	if ip := middleware.ClientIP(r); ip != "" {
		return ip
	}
	return "anon"
}

// visionError maps an image chat failure to an API error
func visionError(err error) *apperrors.AppError {
	var perr *assistant.ProviderError
	if errors.As(err, &perr) && perr.Kind == assistant.KindInvalidInput {
		switch {
		case errors.Is(err, assistant.ErrEmptyImage):
			return apperrors.NewAppError(apperrors.CodeImageRequired, "image is required", "")
		case errors.Is(err, assistant.ErrNotImage):
			return apperrors.NewAppError(apperrors.CodeUnsupportedMedia, "Only image files are supported", "")
		case errors.Is(err, assistant.ErrVisionNotConfigured):
			return apperrors.NewAppError(apperrors.CodeVisionUnavailable, "Vision provider not configured", "")
		default:
			return apperrors.NewBadRequestError(perr.Err.Error())
		}
	}
	return apperrors.NewExternalServiceError("vision", err)
}
