// Package catalog holds the read-only product/decor records returned by searches.
package catalog

import "fmt"

// Item is a catalog record projected for display. The stored embedding is never part of it.
type Item struct {
	ID          string
	Name        string
	Price       string
	ImageURL    string
	Description string
}

// Collection is the handle of one category-specific catalog set in the vector store.
type Collection struct {
	Name string
}

// IndexName returns the FT index name of the collection.
func (c Collection) IndexName(keyPrefix string) string {
	return fmt.Sprintf("%s%s:idx", keyPrefix, c.Name)
}

// ItemPrefix returns the hash key prefix under which the collection's items live.
func (c Collection) ItemPrefix(keyPrefix string) string {
	return fmt.Sprintf("%s%s:", keyPrefix, c.Name)
}

// ItemKey returns the hash key of one item.
func (c Collection) ItemKey(keyPrefix, id string) string {
	return c.ItemPrefix(keyPrefix) + id
}
