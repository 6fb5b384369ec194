package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/spec-kit/plantpal-service/internal/upload"
	apperrors "github.com/spec-kit/plantpal-service/pkg/util"
)

// DiagnosisService forwards health assessments.
type DiagnosisService struct {
	assessor HealthAssessor
	logger   *zap.Logger
}

func NewDiagnosisService(assessor HealthAssessor, logger *zap.Logger) *DiagnosisService {
	return &DiagnosisService{assessor: assessor, logger: logger}
}

// Assess returns the provider's assessment unchanged.
func (s *DiagnosisService) Assess(ctx context.Context, userID string, asset *upload.Asset) (json.RawMessage, error) {
	result, err := s.assessor.Assess(ctx, asset)
	if err != nil {
		s.logger.Error("health assessment failed", zap.String("user_id", userID), zap.Error(err))
		return nil, apperrors.NewUpstreamError("error checking health", err)
	}
	return result, nil
}
