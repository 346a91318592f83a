package domain

import (
	"context"
	"fmt"
	"strings"
)

// KeyPrefix namespaces every key the service writes.
const KeyPrefix = "lookbook:"

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker verifies an upstream provider is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// NormalizeText trims the input and rejects blank text before any network call.
func NormalizeText(text string) (string, error) {
	t := strings.TrimSpace(text)
	if t == "" {
		return "", fmt.Errorf("embed: %w", ErrEmptyInput)
	}
	return t, nil
}

// InstructionEmbedder prepends a model-specific instruction (e.g. "query: ") before embedding.
// Catalog descriptions and search terms use different instructions with asymmetric models.
type InstructionEmbedder struct {
	inner       Embedder
	instruction string
}

// NewInstructionEmbedder creates a decorator that prepends instruction text.
func NewInstructionEmbedder(inner Embedder, instruction string) *InstructionEmbedder {
	return &InstructionEmbedder{inner: inner, instruction: instruction}
}

// Embed rejects blank text, prepends the instruction and delegates to the inner embedder.
func (e *InstructionEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	text, err := NormalizeText(text)
	if err != nil {
		return EmbeddingResult{}, err
	}
	result, err := e.inner.Embed(ctx, e.instruction+text)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("instruction embed: %w", err)
	}
	return result, nil
}
