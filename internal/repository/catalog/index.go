package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/lookbook/internal/db"
	"github.com/kailas-cloud/lookbook/internal/domain"
	domcat "github.com/kailas-cloud/lookbook/internal/domain/catalog"
	"github.com/kailas-cloud/lookbook/internal/domain/intent"
)

// HNSWConfig holds index build parameters for the embedding field.
type HNSWConfig struct {
	M              int
	EFConstruction int
}

func buildIndex(col domcat.Collection, vectorDim int, hnsw HNSWConfig) (*db.IndexDefinition, error) {
	def, err := db.NewIndex(col.IndexName(domain.KeyPrefix)).
		Prefix(col.ItemPrefix(domain.KeyPrefix)).
		Tag(fieldID).
		Text(fieldName).
		VectorHNSW(fieldEmbedding, vectorDim, db.DistanceCosine, hnsw.M, hnsw.EFConstruction).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build index for %s: %w", col.Name, err)
	}
	return def, nil
}

// EnsureIndex creates the category's index when it does not exist yet.
// It reports whether an index was created.
func (r *Router) EnsureIndex(ctx context.Context, c intent.Category, vectorDim int) (bool, error) {
	col, err := r.Collection(c)
	if err != nil {
		return false, err
	}

	exists, err := r.store.IndexExists(ctx, col.IndexName(domain.KeyPrefix))
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", col.Name, err)
	}
	if exists {
		return false, nil
	}

	def, err := buildIndex(col, vectorDim, r.hnsw)
	if err != nil {
		return false, err
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		// Lost a race with a concurrent ingest.
		if errors.Is(err, db.ErrIndexExists) {
			return false, nil
		}
		return false, fmt.Errorf("create index %s: %w", col.Name, err)
	}
	return true, nil
}

// DropIndex removes the category's index. Stored items are kept and are
// indexed again once the index is recreated. A missing index is not an error.
func (r *Router) DropIndex(ctx context.Context, c intent.Category) error {
	col, err := r.Collection(c)
	if err != nil {
		return err
	}
	if err := r.store.DropIndex(ctx, col.IndexName(domain.KeyPrefix)); err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil
		}
		return fmt.Errorf("drop index %s: %w", col.Name, err)
	}
	return nil
}
