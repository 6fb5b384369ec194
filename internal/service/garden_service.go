package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/plantpal-service/internal/domain"
	"github.com/spec-kit/plantpal-service/internal/events"
	"github.com/spec-kit/plantpal-service/internal/repository"
	"github.com/spec-kit/plantpal-service/internal/upload"
	apperrors "github.com/spec-kit/plantpal-service/pkg/util"
)

// GardenService identifies plants and manages each user's saved collection.
type GardenService struct {
	plants     repository.PlantRepository
	recognizer PlantRecognizer
	store      ImageStore
	dispatcher events.Dispatcher
	folder     string
	logger     *zap.Logger
}

// GardenDependencies groups collaborators of GardenService.
type GardenDependencies struct {
	Plants     repository.PlantRepository
	Recognizer PlantRecognizer
	Store      ImageStore
	Dispatcher events.Dispatcher
}

// NewGardenService builds the service. folder is the image store folder for garden photos.
func NewGardenService(deps GardenDependencies, folder string, logger *zap.Logger) *GardenService {
	return &GardenService{
		plants:     deps.Plants,
		recognizer: deps.Recognizer,
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		folder:     folder,
		logger:     logger,
	}
}

// IdentifyAndSave names the plant, stores the photo and records it in the
// user's garden. Success is only reported once the record is written.
func (s *GardenService) IdentifyAndSave(ctx context.Context, userID string, asset *upload.Asset) (*domain.GardenPlant, error) {
	suggestion, err := s.recognizer.Identify(ctx, asset)
	if err != nil {
		if errors.Is(err, domain.ErrNoSuggestion) {
			return nil, apperrors.NewDomainError(apperrors.CodeNotFound, "could not identify plant", http.StatusNotFound, nil)
		}
		s.logger.Error("plant identification failed", zap.String("user_id", userID), zap.Error(err))
		return nil, apperrors.NewUpstreamError("an error occurred during identification", err)
	}

	// identical photos map to the same stored image
	url, err := s.store.Upload(ctx, asset, domain.ImageUploadOptions{
		Folder:   s.folder,
		PublicID: asset.ShortDigest(32),
	})
	if err != nil {
		s.logger.Error("garden image upload failed", zap.String("user_id", userID), zap.Error(err))
		return nil, apperrors.NewUpstreamError("an error occurred during identification", err)
	}

	plant := &domain.GardenPlant{
		UserID:         userID,
		CommonName:     suggestion.DisplayName(),
		ScientificName: suggestion.ScientificName,
		ImageURL:       url,
	}
	if err := s.plants.Create(ctx, plant); err != nil {
		s.logger.Error("saving identified plant failed; stored image is orphaned",
			zap.String("user_id", userID),
			zap.String("image_url", url),
			zap.Error(err),
		)
		return nil, apperrors.NewInternalError(err)
	}

	publish(ctx, s.dispatcher, s.logger, events.New(events.EventPlantSaved, userID, events.PlantSavedPayload{
		PlantID:        plant.ID,
		CommonName:     plant.CommonName,
		ScientificName: plant.ScientificName,
		Probability:    suggestion.Probability,
	}))
	return plant, nil
}

// List returns the user's plants, newest first.
func (s *GardenService) List(ctx context.Context, userID string) ([]domain.GardenPlant, error) {
	plants, err := s.plants.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return plants, nil
}

// Remove deletes one of the user's plants. Plants owned by someone else are reported as missing.
func (s *GardenService) Remove(ctx context.Context, userID, plantID string) error {
	if _, err := uuid.Parse(plantID); err != nil {
		return apperrors.NewNotFound("plant", map[string]any{"id": plantID})
	}

	plant, err := s.plants.DeleteForUser(ctx, plantID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("plant", map[string]any{"id": plantID})
		}
		return apperrors.NewInternalError(err)
	}

	publish(ctx, s.dispatcher, s.logger, events.New(events.EventPlantRemoved, userID, events.PlantRemovedPayload{
		PlantID:    plant.ID,
		CommonName: plant.CommonName,
	}))
	return nil
}
