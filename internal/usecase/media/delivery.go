// Package media delivers images to the generative model: hosted URLs first, inline bytes once on failure.
package media

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/lookbook/internal/domain"
	dommedia "github.com/kailas-cloud/lookbook/internal/domain/media"
	"github.com/kailas-cloud/lookbook/internal/metrics"
)

const (
	pathURL    = "url"
	pathInline = "inline"
)

// Delivery chooses how images reach the model.
type Delivery struct {
	gen     Generator
	timeout time.Duration
	logger  *zap.Logger
}

// NewDelivery creates a delivery strategy over a generator. timeout bounds each model
// call separately, so a hosted-URL attempt that runs out of time still leaves the inline
// attempt a full budget. timeout <= 0 leaves the caller's deadline in charge.
func NewDelivery(gen Generator, timeout time.Duration, logger *zap.Logger) *Delivery {
	return &Delivery{gen: gen, timeout: timeout, logger: logger}
}

// Generate runs the prompt against the model. Without images it is a single text call.
// With images the hosted URLs are tried first; on any error the whole batch is rebuilt
// from raw bytes and retried exactly once.
func (d *Delivery) Generate(ctx context.Context, prompt string, images []dommedia.Image) (string, error) {
	if len(images) == 0 {
		text, err := d.attempt(ctx, prompt, nil)
		if err != nil {
			return "", fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
		}
		return text, nil
	}

	parts := make([]dommedia.Part, len(images))
	for i, img := range images {
		parts[i] = img.URLPart()
	}

	text, err := d.attempt(ctx, prompt, parts)
	if err == nil {
		metrics.MediaDeliveryTotal.WithLabelValues(pathURL, "ok").Inc()
		return text, nil
	}
	metrics.MediaDeliveryTotal.WithLabelValues(pathURL, "error").Inc()
	d.logger.Warn("Hosted image delivery failed, retrying with inline data",
		zap.Int("images", len(images)),
		zap.Error(err),
	)

	text, err = d.generateInline(ctx, prompt, images)
	if err != nil {
		metrics.MediaDeliveryTotal.WithLabelValues(pathInline, "error").Inc()
		return "", fmt.Errorf("%w: %w", domain.ErrMediaDeliveryFailed, err)
	}
	metrics.MediaDeliveryTotal.WithLabelValues(pathInline, "ok").Inc()
	return text, nil
}

// attempt is one bounded model call.
func (d *Delivery) attempt(ctx context.Context, prompt string, parts []dommedia.Part) (string, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	return d.gen.Generate(ctx, prompt, parts) //nolint:wrapcheck // wrapped by callers
}

func (d *Delivery) generateInline(ctx context.Context, prompt string, images []dommedia.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("request ended before inline attempt: %w", err)
	}
	parts := make([]dommedia.Part, 0, len(images))
	for _, img := range images {
		p, err := img.InlinePart(ctx)
		if err != nil {
			return "", err
		}
		parts = append(parts, p)
	}
	text, err := d.attempt(ctx, prompt, parts)
	if err != nil {
		return "", fmt.Errorf("inline generate: %w", err)
	}
	return text, nil
}

// HealthCheck delegates to the generator when it supports health probes.
func (d *Delivery) HealthCheck(ctx context.Context) error {
	if hc, ok := d.gen.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // passthrough
	}
	return nil
}
