package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/plantpal-service/internal/domain"
	"github.com/spec-kit/plantpal-service/internal/events"
	"github.com/spec-kit/plantpal-service/internal/repository"
	"github.com/spec-kit/plantpal-service/internal/upload"
	apperrors "github.com/spec-kit/plantpal-service/pkg/util"
)

// profilePictureTransformation crops avatars to a 150x150 square.
const profilePictureTransformation = "c_fill,h_150,w_150"

// ProfileService updates the caller's own account.
type ProfileService struct {
	users      repository.UserRepository
	store      ImageStore
	dispatcher events.Dispatcher
	folder     string
	logger     *zap.Logger
}

func NewProfileService(users repository.UserRepository, store ImageStore, dispatcher events.Dispatcher, folder string, logger *zap.Logger) *ProfileService {
	return &ProfileService{
		users:      users,
		store:      store,
		dispatcher: dispatcher,
		folder:     folder,
		logger:     logger,
	}
}

// UpdateUsername renames the user.
func (s *ProfileService) UpdateUsername(ctx context.Context, userID, username string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if msg := validateUsername(username); msg != "" {
		return nil, apperrors.NewValidationError("invalid profile", map[string]any{"username": msg})
	}

	user, err := s.users.UpdateUsername(ctx, userID, username)
	if err != nil {
		return nil, s.mapUserErr(userID, err)
	}
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventProfileUpdated, userID, events.ProfileUpdatedPayload{Field: "username"}))
	return user, nil
}

// UpdatePicture stores the avatar under the user's id, replacing any previous one.
func (s *ProfileService) UpdatePicture(ctx context.Context, userID string, asset *upload.Asset) (*domain.User, error) {
	url, err := s.store.Upload(ctx, asset, domain.ImageUploadOptions{
		Folder:         s.folder,
		PublicID:       userID,
		Overwrite:      true,
		Transformation: profilePictureTransformation,
	})
	if err != nil {
		s.logger.Error("profile picture upload failed", zap.String("user_id", userID), zap.Error(err))
		return nil, apperrors.NewUpstreamError("profile picture upload failed", err)
	}

	user, err := s.users.UpdateProfilePicture(ctx, userID, url)
	if err != nil {
		return nil, s.mapUserErr(userID, err)
	}
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventProfileUpdated, userID, events.ProfileUpdatedPayload{Field: "profilePictureUrl"}))
	return user, nil
}

func (s *ProfileService) mapUserErr(userID string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("user", map[string]any{"id": userID})
	}
	return apperrors.NewInternalError(err)
}
