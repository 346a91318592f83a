package ingest

import (
	"context"

	"github.com/kailas-cloud/lookbook/internal/domain"
	domcat "github.com/kailas-cloud/lookbook/internal/domain/catalog"
	domintent "github.com/kailas-cloud/lookbook/internal/domain/intent"
)

// Embedder vectorizes item descriptions.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Catalog stores items and manages their indexes.
type Catalog interface {
	EnsureIndex(ctx context.Context, c domintent.Category, vectorDim int) (bool, error)
	DropIndex(ctx context.Context, c domintent.Category) error
	Exists(ctx context.Context, c domintent.Category, id string) (bool, error)
	Upsert(ctx context.Context, c domintent.Category, item domcat.Item, vector []float32) error
}
