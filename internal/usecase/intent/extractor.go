// Package intent turns a user request into a structured intent via the generative model.
package intent

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/lookbook/internal/domain"
	domintent "github.com/kailas-cloud/lookbook/internal/domain/intent"
	dommedia "github.com/kailas-cloud/lookbook/internal/domain/media"
	"github.com/kailas-cloud/lookbook/internal/metrics"
)

// Extraction is the parsed intent and the raw reply it came from.
type Extraction struct {
	Intent  domintent.Intent
	RawText string
}

// Extractor builds the prompt, calls the model and parses its reply.
type Extractor struct {
	delivery Delivery
	logger   *zap.Logger
}

// NewExtractor creates an extractor. Model call deadlines belong to the delivery.
func NewExtractor(delivery Delivery, logger *zap.Logger) *Extractor {
	return &Extractor{delivery: delivery, logger: logger}
}

// Extract returns the intent for a query and/or images. On a parse failure the returned
// Extraction still carries RawText so callers can surface it.
func (e *Extractor) Extract(ctx context.Context, query string, images []dommedia.Image) (Extraction, error) {
	if len(images) > dommedia.MaxImages {
		return Extraction{}, fmt.Errorf("%w: at most %d images", domain.ErrInvalidImages, dommedia.MaxImages)
	}
	if len(images) == 0 {
		q, err := domain.NormalizeText(query)
		if err != nil {
			return Extraction{}, fmt.Errorf("extract intent: %w", err)
		}
		query = q
	}

	raw, err := e.delivery.Generate(ctx, domintent.BuildPrompt(query, len(images) > 0), images)
	if err != nil {
		metrics.IntentOutcomeTotal.WithLabelValues("error").Inc()
		return Extraction{}, fmt.Errorf("extract intent: %w", err)
	}

	in, err := domintent.Parse(raw)
	if err != nil {
		metrics.IntentOutcomeTotal.WithLabelValues(outcome(err)).Inc()
		e.logger.Warn("Model reply rejected",
			zap.Int("raw_len", len(raw)),
			zap.Error(err),
		)
		return Extraction{RawText: raw}, fmt.Errorf("parse intent: %w", err)
	}

	if in.Empty() {
		metrics.IntentOutcomeTotal.WithLabelValues("empty").Inc()
	} else {
		metrics.IntentOutcomeTotal.WithLabelValues("ok").Inc()
	}
	e.logger.Debug("Intent extracted",
		zap.String("category", string(in.Category())),
		zap.Strings("terms", in.SearchTerms()),
		zap.Int("images", len(images)),
	)

	return Extraction{Intent: in, RawText: raw}, nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrMalformedIntent):
		return "malformed"
	case errors.Is(err, domain.ErrUnsupportedCategory):
		return "unsupported_category"
	default:
		return "error"
	}
}
