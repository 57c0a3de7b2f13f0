package store

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// searchAttributes are the attribute keys that take part in text search, in
// addition to the item name.
var searchAttributes = []string{"brand", "description", "location"}

// foldCase returns the Unicode case-folded form of s. cases.Caser is not safe
// for concurrent use, so each call builds its own.
func foldCase(s string) string {
	return cases.Fold().String(s)
}

// searchText builds the value stored in items.search_text.
func searchText(name string, attributes map[string]any) string {
	parts := []string{name}
	for _, key := range searchAttributes {
		v, ok := attributes[key]
		if !ok || v == nil {
			continue
		}
		parts = append(parts, fmt.Sprint(v))
	}
	return foldCase(strings.Join(parts, "\n"))
}

// likePattern turns a search term into a LIKE pattern matching it as a
// substring, escaping LIKE metacharacters with a backslash.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(foldCase(term)) + "%"
}
