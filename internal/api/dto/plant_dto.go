package dto

import (
	"time"

	"github.com/spec-kit/plantpal-service/internal/domain"
)

// PlantResponse is a saved garden plant.
type PlantResponse struct {
	ID             string    `json:"_id"`
	UserID         string    `json:"userId"`
	CommonName     string    `json:"commonName"`
	ScientificName string    `json:"scientificName"`
	ImageURL       string    `json:"imageUrl"`
	SavedAt        time.Time `json:"savedAt"`
}

// IdentifyResponse is returned after a plant is identified and saved.
type IdentifyResponse struct {
	Msg   string        `json:"msg"`
	Plant PlantResponse `json:"plant"`
}

// MessageResponse carries a short confirmation.
type MessageResponse struct {
	Msg string `json:"msg"`
}

// ChatRequest payload for POST /api/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse carries the assistant's answer.
type ChatResponse struct {
	Reply string `json:"reply"`
}

func NewPlantResponse(p *domain.GardenPlant) PlantResponse {
	return PlantResponse{
		ID:             p.ID,
		UserID:         p.UserID,
		CommonName:     p.CommonName,
		ScientificName: p.ScientificName,
		ImageURL:       p.ImageURL,
		SavedAt:        p.SavedAt,
	}
}

func NewPlantListResponse(plants []domain.GardenPlant) []PlantResponse {
	out := make([]PlantResponse, 0, len(plants))
	for i := range plants {
		out = append(out, NewPlantResponse(&plants[i]))
	}
	return out
}
