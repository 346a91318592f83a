package embedsvc

import (
	"errors"
	"slices"
	"testing"

	"github.com/kailas-cloud/lookbook/internal/domain"
)

func TestExtractVector_Shapes(t *testing.T) {
	want := []float32{0.5, -1, 2.25}
	tests := []struct {
		name string
		body string
	}{
		{"vector object", `{"vector":[0.5,-1,2.25]}`},
		{"list of vector objects", `[{"vector":[0.5,-1,2.25]}]`},
		{"data vector", `{"data":[{"vector":[0.5,-1,2.25]}]}`},
		{"data embedding", `{"object":"list","data":[{"embedding":[0.5,-1,2.25],"index":0}]}`},
		{"embedding array", `{"embedding":[0.5,-1,2.25]}`},
		{"embedding values", `{"embedding":{"values":[0.5,-1,2.25]}}`},
		{"bare array", `[0.5,-1,2.25]`},
		{"single output list", `[[0.5,-1,2.25]]`},
		{"whitespace", "\n  {\"vector\": [0.5, -1, 2.25]}\n"},
		{"sse", "event: complete\ndata: [{\"vector\":[0.5,-1,2.25]}]\n\n"},
		{"sse nested list", "event: complete\ndata: [[0.5,-1,2.25]]\n"},
		{"sse skips bad payload", "event: generating\ndata: null\n\nevent: complete\ndata: {\"vector\":[0.5,-1,2.25]}\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractVector([]byte(tc.body))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(got, want) {
				t.Errorf("got %v, want %v", got, want)
			}
		})
	}
}

func TestExtractVector_Precedence(t *testing.T) {
	got, err := ExtractVector([]byte(`{"vector":[1],"embedding":[2],"data":[{"vector":[3]}]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0] != 1 {
		t.Errorf("top-level vector must win, got %v", got)
	}

	got, err = ExtractVector([]byte(`{"embedding":[2],"data":[{"embedding":[3]}]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0] != 3 {
		t.Errorf("data[0].embedding must win over embedding, got %v", got)
	}
}

func TestExtractVector_Failures(t *testing.T) {
	bodies := []string{
		``,
		`   `,
		`{}`,
		`{"vector":[]}`,
		`{"vector":["a","b"]}`,
		`{"data":[]}`,
		`[]`,
		`"just a string"`,
		`<html>502 Bad Gateway</html>`,
		"event: error\ndata: null\n",
		`{"vector":[1,2`,
	}
	for _, b := range bodies {
		if _, err := ExtractVector([]byte(b)); !errors.Is(err, domain.ErrEmbeddingFailure) {
			t.Errorf("ExtractVector(%q): expected ErrEmbeddingFailure, got %v", b, err)
		}
	}
}
