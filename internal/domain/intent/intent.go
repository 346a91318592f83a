package intent

import "strings"

// MaxSearchTerms caps how many terms a single intent may fan out into.
const MaxSearchTerms = 5

// Intent is the structured interpretation of a request.
type Intent struct {
	category    Category
	context     string
	itemInImage string
	searchTerms []string
}

// New builds an intent. Terms are trimmed, blanks dropped, and the list is truncated to MaxSearchTerms.
// The category must already be validated by the caller.
func New(category Category, context, itemInImage string, terms []string) Intent {
	return Intent{
		category:    category,
		context:     strings.TrimSpace(context),
		itemInImage: strings.TrimSpace(itemInImage),
		searchTerms: normalizeTerms(terms),
	}
}

// Category returns the classified catalog domain.
func (i *Intent) Category() Category { return i.category }

// Context returns the model's advisory summary of the request.
func (i *Intent) Context() string { return i.context }

// ItemInImage returns the model's description of the pictured item, if any.
func (i *Intent) ItemInImage() string { return i.itemInImage }

// SearchTerms returns a copy of the ordered search terms; index 0 is the most relevant.
func (i *Intent) SearchTerms() []string {
	out := make([]string, len(i.searchTerms))
	copy(out, i.searchTerms)
	return out
}

// Empty reports whether there is nothing to search for.
func (i *Intent) Empty() bool { return len(i.searchTerms) == 0 }

func normalizeTerms(terms []string) []string {
	out := make([]string, 0, min(len(terms), MaxSearchTerms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		out = append(out, t)
		if len(out) == MaxSearchTerms {
			break
		}
	}
	return out
}
