// Package catalog routes vector searches to the category-specific catalog collection
// and writes catalog items into it.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/lookbook/internal/db"
	"github.com/kailas-cloud/lookbook/internal/domain"
	domcat "github.com/kailas-cloud/lookbook/internal/domain/catalog"
	"github.com/kailas-cloud/lookbook/internal/domain/intent"
)

// Hash field names of a stored catalog item.
const (
	fieldID          = "id"
	fieldName        = "name"
	fieldPrice       = "price"
	fieldImageURL    = "image_url"
	fieldDescription = "description"
	fieldEmbedding   = "embedding"
)

// displayFields is the search projection. The embedding is never returned.
var displayFields = []string{fieldID, fieldName, fieldPrice, fieldImageURL, fieldDescription}

// store is the consumer interface for catalog operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Router maps each category to its collection and runs searches against it.
// The mapping is fixed at construction.
type Router struct {
	store       store
	collections map[intent.Category]domcat.Collection
	hnsw        HNSWConfig
}

// NewRouter validates that every category has a named collection.
func NewRouter(s store, collections map[intent.Category]domcat.Collection, hnsw HNSWConfig) (*Router, error) {
	m := make(map[intent.Category]domcat.Collection, len(collections))
	for _, c := range intent.Categories() {
		col, ok := collections[c]
		if !ok || col.Name == "" {
			return nil, fmt.Errorf("no collection configured for category %q", c)
		}
		if !db.IsValidIdentifier(col.Name) {
			return nil, fmt.Errorf("invalid collection name %q for category %q", col.Name, c)
		}
		m[c] = col
	}
	for c := range collections {
		if !c.IsValid() {
			return nil, fmt.Errorf("collection configured for %w: %q", domain.ErrUnsupportedCategory, c)
		}
	}
	return &Router{store: s, collections: m, hnsw: hnsw}, nil
}

// Collection returns the collection serving a category.
func (r *Router) Collection(c intent.Category) (domcat.Collection, error) {
	col, ok := r.collections[c]
	if !ok {
		return domcat.Collection{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedCategory, c)
	}
	return col, nil
}

// Search returns up to limit items nearest to vector, most similar first.
// candidatePool is the HNSW candidate list examined before truncation and must be >= limit.
// No match yields nil, nil.
func (r *Router) Search(
	ctx context.Context, c intent.Category, vector []float32, candidatePool, limit int,
) ([]domcat.Item, error) {
	if limit <= 0 || candidatePool < limit {
		return nil, fmt.Errorf("%w: pool=%d limit=%d", domain.ErrInvalidSearchParams, candidatePool, limit)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", domain.ErrInvalidSearchParams)
	}

	col, err := r.Collection(c)
	if err != nil {
		return nil, err
	}

	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    col.IndexName(domain.KeyPrefix),
		VectorField:  fieldEmbedding,
		Vector:       vector,
		K:            limit,
		EFRuntime:    candidatePool,
		ReturnFields: displayFields,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: search %s: %w", domain.ErrSearchFailure, col.Name, err)
	}
	if len(sr.Entries) == 0 {
		return nil, nil
	}

	prefix := col.ItemPrefix(domain.KeyPrefix)
	items := make([]domcat.Item, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		items = append(items, toItem(e, prefix))
	}
	return items, nil
}

// Upsert stores an item with its embedding in the category's collection.
func (r *Router) Upsert(ctx context.Context, c intent.Category, item domcat.Item, vector []float32) error {
	if item.ID == "" {
		return errors.New("item id is required")
	}
	if len(vector) == 0 {
		return errors.New("item embedding is required")
	}
	col, err := r.Collection(c)
	if err != nil {
		return err
	}

	fields := map[string]string{
		fieldID:          item.ID,
		fieldName:        item.Name,
		fieldPrice:       item.Price,
		fieldImageURL:    item.ImageURL,
		fieldDescription: item.Description,
		fieldEmbedding:   rueidis.VectorString32(vector),
	}
	if err := r.store.HSet(ctx, col.ItemKey(domain.KeyPrefix, item.ID), fields); err != nil {
		return fmt.Errorf("store item %s/%s: %w", col.Name, item.ID, err)
	}
	return nil
}

func toItem(e db.SearchEntry, prefix string) domcat.Item {
	id := e.Fields[fieldID]
	if id == "" && len(e.Key) > len(prefix) && e.Key[:len(prefix)] == prefix {
		id = e.Key[len(prefix):]
	}
	return domcat.Item{
		ID:          id,
		Name:        e.Fields[fieldName],
		Price:       e.Fields[fieldPrice],
		ImageURL:    e.Fields[fieldImageURL],
		Description: e.Fields[fieldDescription],
	}
}

// Exists reports whether an item is stored in the category's collection.
func (r *Router) Exists(ctx context.Context, c intent.Category, id string) (bool, error) {
	col, err := r.Collection(c)
	if err != nil {
		return false, err
	}
	ok, err := r.store.Exists(ctx, col.ItemKey(domain.KeyPrefix, id))
	if err != nil {
		return false, fmt.Errorf("check item %s/%s: %w", col.Name, id, err)
	}
	return ok, nil
}

// Get loads one item. A missing item yields domain.ErrNotFound.
func (r *Router) Get(ctx context.Context, c intent.Category, id string) (domcat.Item, error) {
	col, err := r.Collection(c)
	if err != nil {
		return domcat.Item{}, err
	}
	key := col.ItemKey(domain.KeyPrefix, id)
	fields, err := r.store.HGetAll(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domcat.Item{}, fmt.Errorf("%w: item %s/%s", domain.ErrNotFound, col.Name, id)
		}
		return domcat.Item{}, fmt.Errorf("load item %s/%s: %w", col.Name, id, err)
	}
	return toItem(db.SearchEntry{Key: key, Fields: fields}, col.ItemPrefix(domain.KeyPrefix)), nil
}

// Delete removes one item. Deleting a missing item is not an error.
func (r *Router) Delete(ctx context.Context, c intent.Category, id string) error {
	col, err := r.Collection(c)
	if err != nil {
		return err
	}
	if err := r.store.Del(ctx, col.ItemKey(domain.KeyPrefix, id)); err != nil {
		return fmt.Errorf("delete item %s/%s: %w", col.Name, id, err)
	}
	return nil
}
