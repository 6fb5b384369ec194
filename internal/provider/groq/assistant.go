// Package groq answers chat prompts through Groq's OpenAI-compatible endpoint.
package groq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel/attribute"

	"github.com/spec-kit/plantpal-service/internal/observability"
)

const (
	providerName   = "groq"
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "llama-3.1-8b-instant"
)

// Config configures the chat model.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Assistant wraps an eino chat model.
type Assistant struct {
	chatModel model.BaseChatModel
	modelName string
	metrics   *observability.Metrics
}

// NewAssistant builds an assistant backed by the eino OpenAI model pointed at Groq.
func NewAssistant(ctx context.Context, cfg Config, metrics *observability.Metrics) (*Assistant, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("init groq chat model: %w", err)
	}
	return NewWithModel(chatModel, cfg.Model, metrics), nil
}

// NewWithModel wraps any eino chat model.
func NewWithModel(chatModel model.BaseChatModel, modelName string, metrics *observability.Metrics) *Assistant {
	return &Assistant{chatModel: chatModel, modelName: modelName, metrics: metrics}
}

// Reply sends one system and one user message and returns the model's answer.
func (a *Assistant) Reply(ctx context.Context, system, user string) (reply string, err error) {
	ctx, span := observability.StartSpan(ctx, "groq.chat",
		attribute.String("provider", providerName),
		attribute.String("llm.model", a.modelName),
	)
	start := time.Now()
	defer func() {
		a.metrics.RecordUpstream(providerName, "chat", err, time.Since(start))
		observability.EndSpan(span, err)
	}()

	messages := []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(user),
	}
	resp, err := a.chatModel.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("groq chat: %w", err)
	}
	if resp == nil {
		return "", errors.New("groq chat: empty response")
	}
	return strings.TrimSpace(resp.Content), nil
}
