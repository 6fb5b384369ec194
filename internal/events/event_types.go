package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered EventType = "user_registered"
	EventPlantSaved     EventType = "plant_saved"
	EventPlantRemoved   EventType = "plant_removed"
	EventProfileUpdated EventType = "profile_updated"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType EventType, userID string, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Username string `json:"username"`
}

// PlantSavedPayload payload.
type PlantSavedPayload struct {
	PlantID        string  `json:"plant_id"`
	CommonName     string  `json:"common_name"`
	ScientificName string  `json:"scientific_name"`
	Probability    float64 `json:"probability"`
}

// PlantRemovedPayload payload.
type PlantRemovedPayload struct {
	PlantID    string `json:"plant_id"`
	CommonName string `json:"common_name"`
}

// ProfileUpdatedPayload payload.
type ProfileUpdatedPayload struct {
	Field string `json:"field"`
}
