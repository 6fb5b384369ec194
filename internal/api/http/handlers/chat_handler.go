package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/plantpal-service/internal/api/dto"
	"github.com/spec-kit/plantpal-service/internal/service"
	apperrors "github.com/spec-kit/plantpal-service/pkg/util"
)

// ChatHandler serves the gardening assistant.
type ChatHandler struct {
	chat *service.ChatService
}

func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// Reply handles POST /api/chat.
func (h *ChatHandler) Reply(c *fiber.Ctx) error {
	identity, err := requireIdentity(c)
	if err != nil {
		return err
	}
	var req dto.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	reply, err := h.chat.Reply(c.UserContext(), identity.SubjectID, req.Message)
	if err != nil {
		return err
	}
	return c.JSON(dto.ChatResponse{Reply: reply})
}
