package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/spec-kit/plantpal-service/internal/domain"
	"github.com/spec-kit/plantpal-service/internal/events"
	"github.com/spec-kit/plantpal-service/internal/upload"
)

// PlantRecognizer names the plant in an image.
type PlantRecognizer interface {
	Identify(ctx context.Context, asset *upload.Asset) (domain.PlantSuggestion, error)
}

// HealthAssessor diagnoses plant health from an image.
type HealthAssessor interface {
	Assess(ctx context.Context, asset *upload.Asset) (json.RawMessage, error)
}

// ImageStore persists images and returns a public URL.
type ImageStore interface {
	Upload(ctx context.Context, asset *upload.Asset, opts domain.ImageUploadOptions) (string, error)
}

// Assistant produces a chat reply for a system prompt and a user message.
type Assistant interface {
	Reply(ctx context.Context, system, user string) (string, error)
}

// Notifier pushes a notification to a realtime room.
type Notifier interface {
	Notify(ctx context.Context, room string, n domain.Notification) int
}

func publish(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("publish event", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
