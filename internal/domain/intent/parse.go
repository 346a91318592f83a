package intent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/lookbook/internal/domain"
)

// MalformedError wraps domain.ErrMalformedIntent and keeps the raw reply for diagnostics.
type MalformedError struct {
	Raw    string
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("%s: %s", domain.ErrMalformedIntent.Error(), e.Reason)
}

func (e *MalformedError) Unwrap() error { return domain.ErrMalformedIntent }

// UnsupportedCategoryError wraps domain.ErrUnsupportedCategory with the offending value.
type UnsupportedCategoryError struct {
	Value string
	Raw   string
}

func (e *UnsupportedCategoryError) Error() string {
	return fmt.Sprintf("%s: %q", domain.ErrUnsupportedCategory.Error(), e.Value)
}

func (e *UnsupportedCategoryError) Unwrap() error { return domain.ErrUnsupportedCategory }

// RawText returns the model reply carried by a parse error, or "".
func RawText(err error) string {
	var me *MalformedError
	if errors.As(err, &me) {
		return me.Raw
	}
	var ue *UnsupportedCategoryError
	if errors.As(err, &ue) {
		return ue.Raw
	}
	return ""
}

// payload is the wire shape the prompt asks for. "recommendations" is the older key
// for the term list and is honoured when "searchTerms" is absent.
type payload struct {
	Category        *string    `json:"category"`
	Context         flexString `json:"context"`
	ItemInImage     flexString `json:"itemInImage"`
	SearchTerms     []string   `json:"searchTerms"`
	Recommendations []string   `json:"recommendations"`
}

// Parse extracts an Intent from free-form model text. The JSON payload is the substring
// from the first '{' to the last '}'; anything around it is ignored.
//
// A reply with zero terms is a valid, empty intent. A present but unknown category is
// always rejected, even when there are no terms.
func Parse(raw string) (Intent, error) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end < 0 || end < start {
		return Intent{}, &MalformedError{Raw: raw, Reason: "no JSON object in reply"}
	}

	var p payload
	if err := json.Unmarshal([]byte(raw[start:end+1]), &p); err != nil {
		return Intent{}, &MalformedError{Raw: raw, Reason: err.Error()}
	}

	terms := p.SearchTerms
	if terms == nil {
		terms = p.Recommendations
	}

	var category Category
	switch {
	case p.Category != nil:
		c, err := ParseCategory(*p.Category)
		if err != nil {
			return Intent{}, &UnsupportedCategoryError{Value: *p.Category, Raw: raw}
		}
		category = c
	case len(normalizeTerms(terms)) > 0:
		// Terms without a category cannot be routed to a collection.
		return Intent{}, &UnsupportedCategoryError{Value: "", Raw: raw}
	}

	return New(category, string(p.Context), string(p.ItemInImage), terms), nil
}

// flexString accepts a JSON string or an array of strings (joined with ", ").
// Models are inconsistent about advisory fields; these never drive routing.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return fmt.Errorf("expected string or string array: %w", err)
	}
	*f = flexString(strings.Join(list, ", "))
	return nil
}
