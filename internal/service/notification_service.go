package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/plantpal-service/internal/domain"
	"github.com/spec-kit/plantpal-service/internal/events"
)

// NotificationService turns domain events into realtime notifications for the
// owner's room.
type NotificationService struct {
	dispatcher events.Dispatcher
	notifier   Notifier
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, notifier Notifier, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		notifier:   notifier,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUserRegistered, n.handleUserRegistered)
	n.dispatcher.Subscribe(events.EventPlantSaved, n.handlePlantSaved)
	n.dispatcher.Subscribe(events.EventPlantRemoved, n.handlePlantRemoved)
	n.dispatcher.Subscribe(events.EventProfileUpdated, n.handleProfileUpdated)
}

func (n *NotificationService) handleUserRegistered(ctx context.Context, event events.Event) error {
	n.logger.Info("UserRegistered", zap.String("user_id", event.UserID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handlePlantSaved(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PlantSavedPayload)
	if !ok {
		return fmt.Errorf("plant_saved: unexpected payload %T", event.Payload)
	}
	n.push(ctx, event, domain.Notification{
		Type: domain.NotificationSuccess,
		Msg:  fmt.Sprintf("🌿 %s was added to your garden", payload.CommonName),
	})
	return nil
}

func (n *NotificationService) handlePlantRemoved(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PlantRemovedPayload)
	if !ok {
		return fmt.Errorf("plant_removed: unexpected payload %T", event.Payload)
	}
	n.push(ctx, event, domain.Notification{
		Type: domain.NotificationInfo,
		Msg:  fmt.Sprintf("%s was removed from your garden", payload.CommonName),
	})
	return nil
}

func (n *NotificationService) handleProfileUpdated(ctx context.Context, event events.Event) error {
	n.push(ctx, event, domain.Notification{
		Type: domain.NotificationInfo,
		Msg:  "Your profile was updated",
	})
	return nil
}

func (n *NotificationService) push(ctx context.Context, event events.Event, notification domain.Notification) {
	if n.notifier == nil || event.UserID == "" {
		return
	}
	delivered := n.notifier.Notify(ctx, event.UserID, notification)
	n.logger.Debug("notification pushed",
		zap.String("event_type", string(event.Type)),
		zap.String("user_id", event.UserID),
		zap.Int("delivered", delivered),
	)
}
