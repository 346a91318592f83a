package intent

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/lookbook/internal/domain"
)

// Category is the catalog domain a request is classified into.
type Category string

// Supported catalog categories. The set is closed: anything else is rejected.
const (
	Clothing Category = "clothing"
	Decor    Category = "decor"
)

// Categories returns every supported category in a fixed order.
func Categories() []Category {
	return []Category{Clothing, Decor}
}

// IsValid checks if the category is one of the supported values.
func (c Category) IsValid() bool {
	return c == Clothing || c == Decor
}

// ParseCategory normalizes case and surrounding space, then validates against the enum.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedCategory, s)
	}
	return c, nil
}
