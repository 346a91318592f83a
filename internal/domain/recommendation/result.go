// Package recommendation holds the aggregated response of one request and its merge rules.
package recommendation

import (
	"slices"

	"github.com/kailas-cloud/lookbook/internal/domain/catalog"
	"github.com/kailas-cloud/lookbook/internal/domain/intent"
)

// NoRecommendationsMessage is reported when the intent carries nothing to search for.
const NoRecommendationsMessage = "Analysis complete, but no recommendations to search for."

// SearchUnavailableMessage is reported when every search term failed to embed or search.
const SearchUnavailableMessage = "Analysis complete, but the catalog search is unavailable right now."

// TermOutcome records what one search term contributed.
type TermOutcome struct {
	Term  string
	Items int
	Err   error
}

// Failed reports whether the term's embed or search failed.
func (o TermOutcome) Failed() bool { return o.Err != nil }

// Result is the final response of the pipeline. It is never mutated after construction.
type Result struct {
	items   []catalog.Item
	intent  intent.Intent
	rawText string
	message string
	terms   []TermOutcome
	images  []string
}

// New creates a result. items must already be merged and deduplicated.
func New(items []catalog.Item, in intent.Intent, rawText, message string, terms []TermOutcome) Result {
	if items == nil {
		items = []catalog.Item{}
	}
	return Result{items: items, intent: in, rawText: rawText, message: message, terms: terms}
}

// WithRawText returns a copy carrying the model reply the intent was parsed from.
func (r Result) WithRawText(raw string) Result {
	r.rawText = raw
	return r
}

// WithImages returns a copy carrying the hosted URLs of the request images.
func (r Result) WithImages(urls []string) Result {
	r.images = urls
	return r
}

// Items returns a copy of the deduplicated items in presentation order.
func (r *Result) Items() []catalog.Item { return slices.Clone(r.items) }

// Intent returns the intent that produced the result.
func (r *Result) Intent() intent.Intent { return r.intent }

// RawText returns the unparsed model reply.
func (r *Result) RawText() string { return r.rawText }

// Message returns an explanatory note, e.g. for an empty intent.
func (r *Result) Message() string { return r.message }

// Terms returns per-term diagnostics in term order.
func (r *Result) Terms() []TermOutcome { return slices.Clone(r.terms) }

// Images returns the hosted URLs of the request images, if any.
func (r *Result) Images() []string { return slices.Clone(r.images) }

// FailedTerms counts terms whose embed or search failed.
func (r *Result) FailedTerms() int {
	n := 0
	for _, t := range r.terms {
		if t.Failed() {
			n++
		}
	}
	return n
}
