package db

import "testing"

func TestIndexBuilder_CatalogIndex(t *testing.T) {
	idx, err := NewIndex("lookbook:clothing:idx").
		Prefix("lookbook:clothing:").
		Tag("id").
		Text("name").
		VectorHNSW("embedding", 384, DistanceCosine, 16, 200).
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(idx.Prefixes) != 1 || idx.Prefixes[0] != "lookbook:clothing:" {
		t.Errorf("prefixes = %v", idx.Prefixes)
	}
	if len(idx.Fields) != 3 {
		t.Fatalf("fields = %d, want 3", len(idx.Fields))
	}
	v := idx.Fields[2]
	if v.Type != IndexFieldVector || v.VectorDim != 384 || v.VectorM != 16 || v.VectorEFConstruct != 200 {
		t.Errorf("vector field = %+v", v)
	}
}

func TestIndexBuilder_Invalid(t *testing.T) {
	tests := []struct {
		name string
		b    *IndexBuilder
	}{
		{"empty name", NewIndex("").Tag("id")},
		{"bad chars", NewIndex("idx with space").Tag("id")},
		{"no fields", NewIndex("idx")},
		{"duplicate field", NewIndex("idx").Tag("id").Text("id")},
		{"zero dim", NewIndex("idx").VectorHNSW("embedding", 0, DistanceCosine, 0, 0)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.b.Build(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestIsValidIdentifier(t *testing.T) {
	valid := []string{"idx", "lookbook:decor:idx", "a_b-c"}
	for _, s := range valid {
		if !IsValidIdentifier(s) {
			t.Errorf("IsValidIdentifier(%q) = false", s)
		}
	}
	invalid := []string{"", "a b", "idx*", "ключ"}
	for _, s := range invalid {
		if IsValidIdentifier(s) {
			t.Errorf("IsValidIdentifier(%q) = true", s)
		}
	}
}
