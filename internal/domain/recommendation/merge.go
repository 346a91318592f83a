package recommendation

import "github.com/kailas-cloud/lookbook/internal/domain/catalog"

// Merge concatenates per-term lists in term order and drops repeated IDs.
// The first occurrence (lowest term index, then lowest rank) wins and fixes the position.
func Merge(lists [][]catalog.Item) []catalog.Item {
	total := 0
	for _, l := range lists {
		total += len(l)
	}
	flat := make([]catalog.Item, 0, total)
	for _, l := range lists {
		flat = append(flat, l...)
	}
	return Dedupe(flat)
}

// Dedupe keeps the first item per ID, preserving order. Applying it twice is a no-op.
func Dedupe(items []catalog.Item) []catalog.Item {
	seen := make(map[string]struct{}, len(items))
	out := make([]catalog.Item, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.ID]; ok {
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	return out
}
