package catalog

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/kailas-cloud/lookbook/internal/db"
	"github.com/kailas-cloud/lookbook/internal/domain"
	domcat "github.com/kailas-cloud/lookbook/internal/domain/catalog"
	"github.com/kailas-cloud/lookbook/internal/domain/intent"
)

func TestNewRouter_RequiresEveryCategory(t *testing.T) {
	_, err := NewRouter(&mockStore{}, map[intent.Category]domcat.Collection{
		intent.Clothing: {Name: "clothing"},
	}, HNSWConfig{})
	if err == nil {
		t.Fatal("expected error for missing decor collection")
	}
}

func TestNewRouter_RejectsUnknownCategory(t *testing.T) {
	cols := testCollections()
	cols["furniture"] = domcat.Collection{Name: "furniture"}
	_, err := NewRouter(&mockStore{}, cols, HNSWConfig{})
	if !errors.Is(err, domain.ErrUnsupportedCategory) {
		t.Fatalf("expected ErrUnsupportedCategory, got %v", err)
	}
}

func TestNewRouter_RejectsBadName(t *testing.T) {
	cols := testCollections()
	cols[intent.Decor] = domcat.Collection{Name: "home decor"}
	if _, err := NewRouter(&mockStore{}, cols, HNSWConfig{}); err == nil {
		t.Fatal("expected error for collection name with a space")
	}
}

func TestSearch_RoutesByCategory(t *testing.T) {
	r, ms := newTestRouter(t)

	var got *db.KNNQuery
	ms.searchKNNFn = func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
		got = q
		return &db.SearchResult{}, nil
	}

	if _, err := r.Search(context.Background(), intent.Decor, []float32{0.1}, 100, 6); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.IndexName != "lookbook:decor:idx" {
		t.Errorf("index = %q", got.IndexName)
	}
	if got.K != 6 || got.EFRuntime != 100 {
		t.Errorf("k=%d ef=%d, want 6/100", got.K, got.EFRuntime)
	}
	if got.VectorField != "embedding" {
		t.Errorf("vector field = %q", got.VectorField)
	}
	if slices.Contains(got.ReturnFields, "embedding") {
		t.Error("projection must not include the embedding")
	}
	want := []string{"id", "name", "price", "image_url", "description"}
	if !slices.Equal(got.ReturnFields, want) {
		t.Errorf("projection = %v, want display fields only (no score)", got.ReturnFields)
	}
}

func TestSearch_MapsEntries(t *testing.T) {
	r, ms := newTestRouter(t)

	ms.searchKNNFn = func(_ context.Context, _ *db.KNNQuery) (*db.SearchResult, error) {
		return &db.SearchResult{Total: 2, Entries: []db.SearchEntry{
			{Key: "lookbook:clothing:c1", Distance: 0.1, Fields: map[string]string{
				"id": "c1", "name": "Linen shirt", "price": "49.90",
				"image_url": "https://img/c1.jpg", "description": "white linen",
			}},
			{Key: "lookbook:clothing:c2", Distance: 0.2, Fields: map[string]string{"name": "Chinos"}},
		}}, nil
	}

	items, err := r.Search(context.Background(), intent.Clothing, []float32{0.1}, 100, 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	want := domcat.Item{ID: "c1", Name: "Linen shirt", Price: "49.90", ImageURL: "https://img/c1.jpg", Description: "white linen"}
	if items[0] != want {
		t.Errorf("item[0] = %+v", items[0])
	}
	if items[1].ID != "c2" {
		t.Errorf("id must fall back to key suffix, got %q", items[1].ID)
	}
}

func TestSearch_EmptyIsNil(t *testing.T) {
	r, _ := newTestRouter(t)
	items, err := r.Search(context.Background(), intent.Clothing, []float32{0.1}, 100, 6)
	if err != nil || items != nil {
		t.Fatalf("expected nil, nil; got %v, %v", items, err)
	}
}

func TestSearch_InvalidParams(t *testing.T) {
	r, ms := newTestRouter(t)
	ms.searchKNNFn = func(_ context.Context, _ *db.KNNQuery) (*db.SearchResult, error) {
		t.Fatal("store must not be called with invalid params")
		return nil, nil
	}

	tests := []struct {
		name        string
		pool, limit int
		vec         []float32
	}{
		{"zero limit", 100, 0, []float32{1}},
		{"negative limit", 100, -1, []float32{1}},
		{"pool below limit", 5, 6, []float32{1}},
		{"empty vector", 100, 6, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := r.Search(context.Background(), intent.Clothing, tc.vec, tc.pool, tc.limit)
			if !errors.Is(err, domain.ErrInvalidSearchParams) {
				t.Errorf("expected ErrInvalidSearchParams, got %v", err)
			}
		})
	}
}

func TestSearch_PoolEqualsLimit(t *testing.T) {
	r, _ := newTestRouter(t)
	if _, err := r.Search(context.Background(), intent.Clothing, []float32{1}, 6, 6); err != nil {
		t.Fatalf("pool == limit must be accepted: %v", err)
	}
}

func TestSearch_UnsupportedCategory(t *testing.T) {
	r, _ := newTestRouter(t)
	_, err := r.Search(context.Background(), "furniture", []float32{1}, 100, 6)
	if !errors.Is(err, domain.ErrUnsupportedCategory) {
		t.Fatalf("expected ErrUnsupportedCategory, got %v", err)
	}
}

func TestSearch_StoreError(t *testing.T) {
	r, ms := newTestRouter(t)
	storeErr := &db.Error{Op: db.OpSearch, Err: context.DeadlineExceeded}
	ms.searchKNNFn = func(_ context.Context, _ *db.KNNQuery) (*db.SearchResult, error) {
		return nil, storeErr
	}

	_, err := r.Search(context.Background(), intent.Clothing, []float32{1}, 100, 6)
	if !errors.Is(err, domain.ErrSearchFailure) {
		t.Errorf("expected ErrSearchFailure, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("cause must be preserved, got %v", err)
	}
}

func TestUpsert(t *testing.T) {
	r, ms := newTestRouter(t)

	var key string
	var fields map[string]string
	ms.hsetFn = func(_ context.Context, k string, f map[string]string) error {
		key, fields = k, f
		return nil
	}

	item := domcat.Item{ID: "d7", Name: "Rattan lamp", Price: "89", Description: "woven shade"}
	if err := r.Upsert(context.Background(), intent.Decor, item, []float32{1, 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "lookbook:decor:d7" {
		t.Errorf("key = %q", key)
	}
	if fields["name"] != "Rattan lamp" || fields["description"] != "woven shade" {
		t.Errorf("fields = %v", fields)
	}
	if len(fields["embedding"]) != 8 {
		t.Errorf("embedding blob length = %d, want 8", len(fields["embedding"]))
	}
}

func TestUpsert_Validation(t *testing.T) {
	r, _ := newTestRouter(t)
	if err := r.Upsert(context.Background(), intent.Decor, domcat.Item{}, []float32{1}); err == nil {
		t.Error("expected error for missing id")
	}
	if err := r.Upsert(context.Background(), intent.Decor, domcat.Item{ID: "x"}, nil); err == nil {
		t.Error("expected error for missing embedding")
	}
}

func TestGet_ReturnsItem(t *testing.T) {
	r, ms := newTestRouter(t)
	var gotKey string
	ms.hgetallFn = func(_ context.Context, key string) (map[string]string, error) {
		gotKey = key
		return map[string]string{"name": "Linen shirt", "price": "$40", "embedding": "\x00\x01"}, nil
	}

	item, err := r.Get(context.Background(), intent.Clothing, "c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != "lookbook:clothing:c1" {
		t.Errorf("key = %q", gotKey)
	}
	if item.ID != "c1" || item.Name != "Linen shirt" || item.Price != "$40" {
		t.Errorf("item = %+v", item)
	}
}

func TestGet_Missing(t *testing.T) {
	r, _ := newTestRouter(t)
	_, err := r.Get(context.Background(), intent.Decor, "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExistsAndDelete(t *testing.T) {
	r, ms := newTestRouter(t)
	var deleted string
	ms.existsFn = func(_ context.Context, key string) (bool, error) { return key == "lookbook:decor:d1", nil }
	ms.delFn = func(_ context.Context, key string) error {
		deleted = key
		return nil
	}

	ok, err := r.Exists(context.Background(), intent.Decor, "d1")
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}
	if err := r.Delete(context.Background(), intent.Decor, "d1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if deleted != "lookbook:decor:d1" {
		t.Errorf("deleted %q", deleted)
	}
	if _, err := r.Exists(context.Background(), intent.Category("shoes"), "x"); !errors.Is(err, domain.ErrUnsupportedCategory) {
		t.Errorf("expected ErrUnsupportedCategory, got %v", err)
	}
}
