package model

import "strings"

// Sort orders.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// List limits.
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// ItemFilter selects and orders items for a list read. Zero values mean
// "no constraint"; SortField defaults to name.
type ItemFilter struct {
	Category  Category `json:"category,omitempty"`
	Status    Status   `json:"status,omitempty"`
	Search    string   `json:"search,omitempty"`
	Limit     int      `json:"limit,omitempty"`
	Offset    int      `json:"offset,omitempty"`
	SortField string   `json:"sort,omitempty"`
	SortOrder string   `json:"order,omitempty"`
}

// Normalized returns a copy with defaults applied and whitespace trimmed so
// that equivalent filters produce the same cache key.
func (f ItemFilter) Normalized() ItemFilter {
	f.Search = strings.TrimSpace(f.Search)
	f.SortField = strings.ToLower(strings.TrimSpace(f.SortField))
	f.SortOrder = strings.ToLower(strings.TrimSpace(f.SortOrder))
	if f.SortField == "" {
		f.SortField = "name"
	}
	if f.SortOrder == "" {
		f.SortOrder = SortAsc
	}
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
