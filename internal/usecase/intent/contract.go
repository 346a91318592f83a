package intent

import (
	"context"

	dommedia "github.com/kailas-cloud/lookbook/internal/domain/media"
)

// Delivery runs a prompt with optional images against the generative model.
type Delivery interface {
	Generate(ctx context.Context, prompt string, images []dommedia.Image) (string, error)
}
