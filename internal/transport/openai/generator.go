package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/lookbook/internal/domain"
	"github.com/kailas-cloud/lookbook/internal/domain/media"
	"github.com/kailas-cloud/lookbook/internal/metrics"
)

// Generator calls a vision-capable chat model through the OpenAI-compatible API.
type Generator struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	jsonMode    bool
	logger      *zap.Logger
}

// GeneratorConfig holds the generative model settings.
type GeneratorConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	// JSONMode requests response_format=json_object from providers that support it.
	JSONMode bool
	Logger   *zap.Logger
}

// NewGenerator creates a chat-completion backed generator.
func NewGenerator(cfg *GeneratorConfig) *Generator {
	return &Generator{
		client:      newClient(cfg.APIKey, cfg.BaseURL),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		jsonMode:    cfg.JSONMode,
		logger:      cfg.Logger,
	}
}

// Generate sends the prompt and image parts as one user message and returns the reply text.
// Failures wrap domain.ErrGenerationFailed.
func (g *Generator) Generate(ctx context.Context, prompt string, parts []media.Part) (string, error) {
	kind := "text"
	if len(parts) > 0 {
		kind = "image"
	}

	msg, err := buildMessage(prompt, parts)
	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(kind, "error").Inc()
		return "", err
	}

	req := openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    []openai.ChatCompletionMessage{msg},
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	}
	if g.jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, req)
	metrics.GenerationRequestDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(kind, "error").Inc()
		return "", parseAPIError("generation", err, domain.ErrGenerationFailed)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		metrics.GenerationRequestsTotal.WithLabelValues(kind, "empty").Inc()
		return "", fmt.Errorf("empty completion: %w", domain.ErrGenerationFailed)
	}

	metrics.GenerationRequestsTotal.WithLabelValues(kind, "success").Inc()
	g.logger.Debug("Generation completed",
		zap.String("model", g.model),
		zap.String("kind", kind),
		zap.Int("parts", len(parts)),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)

	return resp.Choices[0].Message.Content, nil
}

// HealthCheck verifies API availability via ListModels.
func (g *Generator) HealthCheck(ctx context.Context) error {
	if _, err := g.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// buildMessage uses plain content for text-only prompts and multi-part content otherwise.
// Inline parts travel as data: URIs.
func buildMessage(prompt string, parts []media.Part) (openai.ChatCompletionMessage, error) {
	if len(parts) == 0 {
		return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt}, nil
	}

	content := make([]openai.ChatMessagePart, 0, len(parts)+1)
	content = append(content, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: prompt})

	for i, p := range parts {
		var url string
		switch p.Kind {
		case media.PartURL:
			if p.URL == "" {
				return openai.ChatCompletionMessage{}, fmt.Errorf("part %d: empty url", i)
			}
			url = p.URL
		case media.PartInline:
			if len(p.Data) == 0 {
				return openai.ChatCompletionMessage{}, fmt.Errorf("part %d: empty inline data", i)
			}
			url = dataURI(p.ContentType, p.Data)
		default:
			return openai.ChatCompletionMessage{}, fmt.Errorf("part %d: unknown kind %d", i, p.Kind)
		}
		content = append(content, openai.ChatMessagePart{
			Type:     openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{URL: url, Detail: openai.ImageURLDetailAuto},
		})
	}

	return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, MultiContent: content}, nil
}

func dataURI(contentType string, data []byte) string {
	ct := media.ResolveContentType(contentType, data)
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(data)
}
