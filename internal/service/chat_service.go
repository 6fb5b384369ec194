package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/plantpal-service/internal/domain"
	"github.com/spec-kit/plantpal-service/internal/repository"
	apperrors "github.com/spec-kit/plantpal-service/pkg/util"
)

const (
	maxChatMessageLength = 2000
	emptyGardenContext   = "an empty garden"
	fallbackReply        = "I'm not sure what to say."
)

const systemPromptTemplate = `You are PlantBot, a helpful gardening assistant.
CONTEXT: The user currently has these plants in their garden: %s.
INSTRUCTION: If the user asks about "my plants" or "my garden", use the CONTEXT above. Keep answers helpful, friendly, and concise (max 3 sentences if possible).`

// ChatService answers gardening questions with the user's garden as context.
type ChatService struct {
	plants    repository.PlantRepository
	assistant Assistant
	logger    *zap.Logger
}

func NewChatService(plants repository.PlantRepository, assistant Assistant, logger *zap.Logger) *ChatService {
	return &ChatService{plants: plants, assistant: assistant, logger: logger}
}

// Reply asks the assistant with a system prompt listing the user's plants.
func (s *ChatService) Reply(ctx context.Context, userID, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", apperrors.NewValidationError("message is required", map[string]any{"message": "is required"})
	}
	if len([]rune(message)) > maxChatMessageLength {
		return "", apperrors.NewValidationError("message is too long", map[string]any{"message": "must be at most 2000 characters"})
	}

	plants, err := s.plants.ListByUser(ctx, userID)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}

	reply, err := s.assistant.Reply(ctx, SystemPrompt(plants), message)
	if err != nil {
		s.logger.Error("chat completion failed", zap.String("user_id", userID), zap.Error(err))
		return "", apperrors.NewUpstreamError("I'm having trouble thinking right now. Please try again later!", err)
	}
	if reply == "" {
		reply = fallbackReply
	}
	return reply, nil
}

// SystemPrompt renders the PlantBot persona with the garden as context.
func SystemPrompt(plants []domain.GardenPlant) string {
	return fmt.Sprintf(systemPromptTemplate, GardenContext(plants))
}

// GardenContext joins the common names of plants, or describes an empty garden.
func GardenContext(plants []domain.GardenPlant) string {
	if len(plants) == 0 {
		return emptyGardenContext
	}
	names := make([]string, 0, len(plants))
	for _, p := range plants {
		names = append(names, p.CommonName)
	}
	return strings.Join(names, ", ")
}
