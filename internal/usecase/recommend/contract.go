package recommend

import (
	"context"

	"github.com/kailas-cloud/lookbook/internal/domain"
	domcat "github.com/kailas-cloud/lookbook/internal/domain/catalog"
	domintent "github.com/kailas-cloud/lookbook/internal/domain/intent"
	dommedia "github.com/kailas-cloud/lookbook/internal/domain/media"
	ucintent "github.com/kailas-cloud/lookbook/internal/usecase/intent"
)

// Embedder vectorizes one search term.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Searcher runs a nearest-neighbour query against the collection of a category.
type Searcher interface {
	Search(
		ctx context.Context, c domintent.Category, vector []float32, candidatePool, limit int,
	) ([]domcat.Item, error)
}

// Extractor turns a request into an intent.
type Extractor interface {
	Extract(ctx context.Context, query string, images []dommedia.Image) (ucintent.Extraction, error)
}

// Uploader hosts an image and returns its reference.
type Uploader interface {
	Upload(ctx context.Context, data []byte, contentType string) (dommedia.Hosted, error)
}
