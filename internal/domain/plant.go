package domain

import (
	"errors"
	"time"
)

// ErrNoSuggestion is returned by recognizers that could not name the plant.
var ErrNoSuggestion = errors.New("no plant suggestion")

// GardenPlant is a saved identification in a user's garden.
type GardenPlant struct {
	ID             string
	UserID         string
	CommonName     string
	ScientificName string
	ImageURL       string
	SavedAt        time.Time
}

// PlantSuggestion is the best candidate returned by the recognition provider.
type PlantSuggestion struct {
	ScientificName string
	CommonNames    []string
	Probability    float64
	URL            string
}

// DisplayName prefers the first common name and falls back to the scientific one.
func (s PlantSuggestion) DisplayName() string {
	for _, name := range s.CommonNames {
		if name != "" {
			return name
		}
	}
	return s.ScientificName
}

// ImageUploadOptions controls how an image is written to the object store.
type ImageUploadOptions struct {
	Folder         string
	PublicID       string
	Overwrite      bool
	Transformation string
}
