package intent

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/lookbook/internal/domain"
)

func TestParse_ProseAroundJSON(t *testing.T) {
	raw := `Sure! Here you go: {"category":"clothing","searchTerms":["red dress"]} Thanks!`

	got, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Category() != Clothing {
		t.Errorf("category = %q, want %q", got.Category(), Clothing)
	}
	terms := got.SearchTerms()
	if len(terms) != 1 || terms[0] != "red dress" {
		t.Errorf("terms = %v, want [red dress]", terms)
	}
}

func TestParse_FullPayload(t *testing.T) {
	raw := "```json\n" + `{
  "category": "Decor",
  "context": ["centerpiece", "rustic"],
  "itemInImage": "oak dining table",
  "searchTerms": ["distressed wood candle holder", "  ", "eucalyptus garland"]
}` + "\n```"

	got, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Category() != Decor {
		t.Errorf("category = %q", got.Category())
	}
	if got.Context() != "centerpiece, rustic" {
		t.Errorf("context = %q", got.Context())
	}
	if got.ItemInImage() != "oak dining table" {
		t.Errorf("itemInImage = %q", got.ItemInImage())
	}
	want := []string{"distressed wood candle holder", "eucalyptus garland"}
	terms := got.SearchTerms()
	if len(terms) != len(want) {
		t.Fatalf("terms = %v, want %v", terms, want)
	}
	for i := range want {
		if terms[i] != want[i] {
			t.Errorf("terms[%d] = %q, want %q", i, terms[i], want[i])
		}
	}
}

func TestParse_LegacyRecommendationsKey(t *testing.T) {
	got, err := Parse(`{"category":"clothing","recommendations":["white silk blouse","tailored wool trousers"]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.SearchTerms()) != 2 {
		t.Errorf("expected 2 terms, got %v", got.SearchTerms())
	}
}

func TestParse_TruncatesToMaxTerms(t *testing.T) {
	got, err := Parse(`{"category":"clothing","searchTerms":["a 1","a 2","a 3","a 4","a 5","a 6","a 7"]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	terms := got.SearchTerms()
	if len(terms) != MaxSearchTerms {
		t.Fatalf("expected %d terms, got %d", MaxSearchTerms, len(terms))
	}
	if terms[0] != "a 1" || terms[4] != "a 5" {
		t.Errorf("truncation must keep leading terms, got %v", terms)
	}
}

func TestParse_EmptyTermsIsValid(t *testing.T) {
	tests := []string{
		`{"category":"decor","searchTerms":[]}`,
		`{"category":"clothing"}`,
		`I can't help with that. {}`,
	}
	for _, raw := range tests {
		got, err := Parse(raw)
		if err != nil {
			t.Errorf("Parse(%q) error: %v", raw, err)
			continue
		}
		if !got.Empty() {
			t.Errorf("Parse(%q) expected empty intent, got %v", raw, got.SearchTerms())
		}
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no braces", "I would suggest a red dress."},
		{"only open", `{"category":"clothing"`},
		{"only close", `category: clothing }`},
		{"reversed", `} nothing here {`},
		{"invalid json", `{"category": clothing, "searchTerms": [}`},
		{"terms wrong type", `{"category":"clothing","searchTerms":"red dress"}`},
		{"empty", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.raw)
			if !errors.Is(err, domain.ErrMalformedIntent) {
				t.Fatalf("expected ErrMalformedIntent, got %v", err)
			}
			if RawText(err) != tc.raw {
				t.Errorf("raw text not preserved: %q", RawText(err))
			}
		})
	}
}

func TestParse_UnsupportedCategory(t *testing.T) {
	raw := `{"category":"furniture","searchTerms":["velvet sofa"]}`

	_, err := Parse(raw)
	if !errors.Is(err, domain.ErrUnsupportedCategory) {
		t.Fatalf("expected ErrUnsupportedCategory, got %v", err)
	}
	var ue *UnsupportedCategoryError
	if !errors.As(err, &ue) {
		t.Fatalf("expected *UnsupportedCategoryError, got %T", err)
	}
	if ue.Value != "furniture" {
		t.Errorf("value = %q", ue.Value)
	}
	if RawText(err) != raw {
		t.Errorf("raw text not preserved")
	}
}

func TestParse_UnsupportedCategoryWithoutTerms(t *testing.T) {
	_, err := Parse(`{"category":"furniture","searchTerms":[]}`)
	if !errors.Is(err, domain.ErrUnsupportedCategory) {
		t.Fatalf("expected ErrUnsupportedCategory, got %v", err)
	}
}

func TestParse_MissingCategoryWithTerms(t *testing.T) {
	_, err := Parse(`{"searchTerms":["red dress"]}`)
	if !errors.Is(err, domain.ErrUnsupportedCategory) {
		t.Fatalf("expected ErrUnsupportedCategory, got %v", err)
	}
}

func TestParseCategory(t *testing.T) {
	for _, s := range []string{"clothing", " Decor ", "CLOTHING"} {
		if _, err := ParseCategory(s); err != nil {
			t.Errorf("ParseCategory(%q) error: %v", s, err)
		}
	}
	for _, s := range []string{"", "furniture", "clothes"} {
		if _, err := ParseCategory(s); !errors.Is(err, domain.ErrUnsupportedCategory) {
			t.Errorf("ParseCategory(%q) expected ErrUnsupportedCategory, got %v", s, err)
		}
	}
}

func TestSearchTerms_ReturnsCopy(t *testing.T) {
	in := New(Clothing, "", "", []string{"red dress"})
	terms := in.SearchTerms()
	terms[0] = "mutated"
	if in.SearchTerms()[0] != "red dress" {
		t.Error("SearchTerms must not expose internal storage")
	}
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("  party look  ", false)
	if !strings.Contains(p, `"clothing", "decor"`) {
		t.Error("prompt must list every category")
	}
	if !strings.HasSuffix(p, "User query: party look") {
		t.Errorf("prompt must end with trimmed user query, got %q", p[len(p)-40:])
	}
	if strings.Contains(p, "itemInImage") {
		t.Error("text prompt should not ask for itemInImage")
	}

	img := BuildPrompt("", true)
	if !strings.Contains(img, "itemInImage") {
		t.Error("image prompt must ask for itemInImage")
	}
	if strings.Contains(img, "User query:") {
		t.Error("blank query must not be appended")
	}
}
