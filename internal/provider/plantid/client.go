// Package plantid calls the Plant.id v2 identification and health assessment API.
package plantid

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/spec-kit/plantpal-service/internal/domain"
	"github.com/spec-kit/plantpal-service/internal/observability"
	"github.com/spec-kit/plantpal-service/internal/upload"
)

const (
	providerName    = "plantid"
	headerAPIKey    = "Api-Key"
	defaultBaseURL  = "https://api.plant.id/v2"
	defaultTimeout  = 20 * time.Second
	maxErrorPreview = 256
)

var (
	plantDetails   = []string{"common_names", "url"}
	diseaseDetails = []string{"common_names", "description", "URL", "treatment"}
)

// Config configures the client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client is a Plant.id v2 client built on fiber's HTTP agent.
type Client struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewClient returns a client; zero values fall back to the public endpoint and a 20s timeout.
func NewClient(cfg Config, logger *zap.Logger, metrics *observability.Metrics) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		timeout: cfg.Timeout,
		logger:  logger,
		metrics: metrics,
	}
}

type identifyRequest struct {
	Images       []string `json:"images"`
	PlantDetails []string `json:"plant_details"`
}

type healthRequest struct {
	Images         []string `json:"images"`
	DiseaseDetails []string `json:"disease_details"`
}

type identifyResponse struct {
	Suggestions []struct {
		PlantName    string  `json:"plant_name"`
		Probability  float64 `json:"probability"`
		PlantDetails struct {
			CommonNames []string `json:"common_names"`
			URL         string   `json:"url"`
		} `json:"plant_details"`
	} `json:"suggestions"`
}

// Identify returns the top suggestion for the asset, or domain.ErrNoSuggestion.
func (c *Client) Identify(ctx context.Context, asset *upload.Asset) (domain.PlantSuggestion, error) {
	body, err := c.post(ctx, "identify", identifyRequest{
		Images:       []string{asset.Base64()},
		PlantDetails: plantDetails,
	}, asset)
	if err != nil {
		return domain.PlantSuggestion{}, err
	}

	var parsed identifyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return domain.PlantSuggestion{}, fmt.Errorf("decode identify response: %w", err)
	}
	if len(parsed.Suggestions) == 0 {
		return domain.PlantSuggestion{}, domain.ErrNoSuggestion
	}

	top := parsed.Suggestions[0]
	return domain.PlantSuggestion{
		ScientificName: top.PlantName,
		CommonNames:    top.PlantDetails.CommonNames,
		Probability:    top.Probability,
		URL:            top.PlantDetails.URL,
	}, nil
}

// Assess returns the provider's health assessment unmodified.
func (c *Client) Assess(ctx context.Context, asset *upload.Asset) (json.RawMessage, error) {
	body, err := c.post(ctx, "health_assessment", healthRequest{
		Images:         []string{asset.Base64()},
		DiseaseDetails: diseaseDetails,
	}, asset)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, errors.New("health assessment response is not valid JSON")
	}
	return json.RawMessage(body), nil
}

func (c *Client) post(ctx context.Context, operation string, payload any, asset *upload.Asset) (body []byte, err error) {
	ctx, span := observability.StartSpan(ctx, "plantid."+operation,
		attribute.String("provider", providerName),
		attribute.String("upload.digest", asset.ShortDigest(16)),
		attribute.Int64("upload.size", asset.Size),
	)
	start := time.Now()
	defer func() {
		c.metrics.RecordUpstream(providerName, operation, err, time.Since(start))
		observability.EndSpan(span, err)
	}()

	timeout, err := c.callTimeout(ctx)
	if err != nil {
		return nil, err
	}

	agent := fiber.Post(c.baseURL + "/" + operation)
	agent.Set(headerAPIKey, c.apiKey)
	agent.JSON(payload)
	agent.Timeout(timeout)
	if err := agent.Parse(); err != nil {
		return nil, fmt.Errorf("prepare %s request: %w", operation, err)
	}

	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("%s request: %w", operation, errors.Join(errs...))
	}
	if status < fiber.StatusOK || status >= fiber.StatusMultipleChoices {
		c.logger.Warn("plant.id returned non-success status",
			zap.String("operation", operation),
			zap.Int("status", status),
			zap.String("body", preview(body)),
		)
		return nil, fmt.Errorf("%s: unexpected status %d", operation, status)
	}
	return body, nil
}

// callTimeout shortens the configured timeout to the context deadline.
func (c *Client) callTimeout(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0, context.DeadlineExceeded
		}
		if remaining < timeout {
			timeout = remaining
		}
	}
	return timeout, nil
}

func preview(body []byte) string {
	if len(body) > maxErrorPreview {
		return string(body[:maxErrorPreview]) + "..."
	}
	return string(body)
}
