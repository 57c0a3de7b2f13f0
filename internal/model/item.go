package model

import (
	"fmt"
	"strings"
	"time"
)

// Item is a tracked household object.
type Item struct {
	ID         string         `json:"id"`
	Category   Category       `json:"category"`
	Name       string         `json:"name"`
	Status     Status         `json:"status"`
	Attributes map[string]any `json:"attributes"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Clone returns a deep enough copy for cache hand-out: the attribute map is
// copied so callers cannot mutate a cached value.
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	c := *i
	if i.Attributes != nil {
		c.Attributes = make(map[string]any, len(i.Attributes))
		for k, v := range i.Attributes {
			c.Attributes[k] = v
		}
	}
	return &c
}

// NewItem is the input for creating an item. Status is not settable; new
// items always start in storage.
type NewItem struct {
	Category   Category       `json:"category"`
	Name       string         `json:"name"`
	Attributes map[string]any `json:"attributes"`
}

// Validate checks the structural constraints the engine owns. Attribute
// schemas beyond the required keys are validated by the caller.
func (n NewItem) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return fmt.Errorf("name required")
	}
	if !n.Category.Valid() {
		return fmt.Errorf("unknown category %q", n.Category)
	}
	for _, key := range RequiredAttributes(n.Category) {
		v, ok := n.Attributes[key]
		if !ok || v == nil {
			return fmt.Errorf("attribute %q required for category %s", key, n.Category)
		}
	}
	return nil
}

// ItemPatch is a partial update. Nil fields are left unchanged. A nil value
// in Attributes removes that key.
type ItemPatch struct {
	Name       *string        `json:"name,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p ItemPatch) Empty() bool {
	return p.Name == nil && len(p.Attributes) == 0
}

// ItemPage is one page of a list read.
type ItemPage struct {
	Items  []Item `json:"items"`
	Total  int    `json:"total"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}
