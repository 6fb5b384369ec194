// Package cloudinary stores uploaded images on Cloudinary.
package cloudinary

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/spec-kit/plantpal-service/internal/domain"
	"github.com/spec-kit/plantpal-service/internal/observability"
	"github.com/spec-kit/plantpal-service/internal/upload"
)

const providerName = "cloudinary"

// Uploader is the part of the Cloudinary upload API the store needs.
type Uploader interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
}

// Config holds account credentials.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
}

// Store uploads assets as data URIs and returns their secure URL.
type Store struct {
	uploader Uploader
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewStore builds a store from account credentials.
func NewStore(cfg Config, logger *zap.Logger, metrics *observability.Metrics) (*Store, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	return NewStoreWithUploader(&cld.Upload, logger, metrics), nil
}

// NewStoreWithUploader wraps an existing uploader.
func NewStoreWithUploader(up Uploader, logger *zap.Logger, metrics *observability.Metrics) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{uploader: up, logger: logger, metrics: metrics}
}

// Upload stores the asset and returns its HTTPS URL.
func (s *Store) Upload(ctx context.Context, asset *upload.Asset, opts domain.ImageUploadOptions) (url string, err error) {
	ctx, span := observability.StartSpan(ctx, "cloudinary.upload",
		attribute.String("provider", providerName),
		attribute.String("cloudinary.folder", opts.Folder),
		attribute.String("upload.digest", asset.ShortDigest(16)),
	)
	start := time.Now()
	defer func() {
		s.metrics.RecordUpstream(providerName, "upload", err, time.Since(start))
		observability.EndSpan(span, err)
	}()

	params := uploader.UploadParams{
		Folder:         opts.Folder,
		PublicID:       opts.PublicID,
		Transformation: opts.Transformation,
	}
	if opts.Overwrite {
		params.Overwrite = api.Bool(true)
	}

	res, err := s.uploader.Upload(ctx, asset.DataURI(), params)
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if res == nil {
		return "", errors.New("cloudinary upload: empty response")
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", res.Error.Message)
	}
	if res.SecureURL == "" {
		return "", errors.New("cloudinary upload: response has no secure url")
	}

	s.logger.Debug("image stored",
		zap.String("folder", opts.Folder),
		zap.String("public_id", res.PublicID),
		zap.Int("bytes", res.Bytes),
	)
	return res.SecureURL, nil
}
