package media

import (
	"context"

	dommedia "github.com/kailas-cloud/lookbook/internal/domain/media"
)

// Generator produces a text reply from a prompt and optional image parts.
type Generator interface {
	Generate(ctx context.Context, prompt string, parts []dommedia.Part) (string, error)
}
