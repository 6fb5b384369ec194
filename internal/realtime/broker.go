package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/plantpal-service/internal/domain"
)

// Channel is the Redis pub/sub channel shared by every instance.
const Channel = "plantpal:notifications"

type envelope struct {
	InstanceID   string              `json:"instance_id"`
	Room         string              `json:"room"`
	Notification domain.Notification `json:"notification"`
	Timestamp    time.Time           `json:"timestamp"`
}

// Broker fans notifications out to the local hub and, when Redis is
// configured, to the hubs of other instances.
type Broker struct {
	hub        *Hub
	client     *redis.Client
	instanceID string
	logger     *zap.Logger
}

// NewBroker returns a broker. A nil client keeps delivery process-local.
func NewBroker(hub *Hub, client *redis.Client, logger *zap.Logger) *Broker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broker{
		hub:        hub,
		client:     client,
		instanceID: uuid.NewString(),
		logger:     logger,
	}
}

func (b *Broker) InstanceID() string { return b.instanceID }

// Notify delivers locally, then publishes for other instances. It returns the
// local delivery count; publish failures are logged and otherwise ignored.
func (b *Broker) Notify(ctx context.Context, room string, n domain.Notification) int {
	delivered := b.hub.Notify(room, n)
	if b.client == nil {
		return delivered
	}

	data, err := json.Marshal(envelope{
		InstanceID:   b.instanceID,
		Room:         room,
		Notification: n,
		Timestamp:    time.Now().UTC(),
	})
	if err != nil {
		b.logger.Warn("marshal notification envelope", zap.Error(err))
		return delivered
	}
	if err := b.client.Publish(ctx, Channel, data).Err(); err != nil {
		b.logger.Warn("publish notification", zap.String("room", room), zap.Error(err))
	}
	return delivered
}

// Run consumes notifications from other instances until ctx is done.
func (b *Broker) Run(ctx context.Context) error {
	if b.client == nil {
		<-ctx.Done()
		return nil
	}

	pubsub := b.client.Subscribe(ctx, Channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("subscribe %s: %w", Channel, err)
	}
	b.logger.Info("realtime broker subscribed", zap.String("channel", Channel), zap.String("instance_id", b.instanceID))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return errors.New("notification subscription closed")
			}
			b.handleMessage(msg.Payload)
		}
	}
}

func (b *Broker) handleMessage(payload string) int {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		b.logger.Warn("failed to unmarshal notification", zap.Error(err))
		return 0
	}
	if env.InstanceID == b.instanceID || env.Room == "" {
		return 0
	}
	return b.hub.Notify(env.Room, env.Notification)
}
