package service

import (
	"context"
	"time"

	"github.com/spec-kit/plantpal-service/internal/domain"
	"github.com/spec-kit/plantpal-service/internal/repository"
	apperrors "github.com/spec-kit/plantpal-service/pkg/util"
)

// PopularPlantsLimit caps the popular plants list on the dashboard.
const PopularPlantsLimit = 5

// AdminService serves the admin dashboard.
type AdminService struct {
	users  repository.UserRepository
	plants repository.PlantRepository
}

func NewAdminService(users repository.UserRepository, plants repository.PlantRepository) *AdminService {
	return &AdminService{users: users, plants: plants}
}

// ListUsers returns every account, newest first.
func (s *AdminService) ListUsers(ctx context.Context, filter repository.UserFilter) ([]domain.User, error) {
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return users, nil
}

// Stats aggregates counts, the all-time signup timeline and the most saved plants.
func (s *AdminService) Stats(ctx context.Context) (*domain.Stats, error) {
	userCount, err := s.users.Count(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	plantCount, err := s.plants.Count(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	timeline, err := s.users.SignupTimeline(ctx, time.Time{})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	popular, err := s.plants.Popular(ctx, PopularPlantsLimit)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &domain.Stats{
		UserCount:  userCount,
		PlantCount: plantCount,
		Timeline:   timeline,
		Popular:    popular,
	}, nil
}
