// Package seed loads items from a YAML fixture. Items are created through the
// service and moved to their listed status through the lifecycle coordinator,
// so seeded data satisfies the same invariants as live data.
package seed

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/erazemk/inventar/internal/lifecycle"
	"github.com/erazemk/inventar/internal/model"
)

// Service is the subset of the inventory service seeding needs.
type Service interface {
	CreateItem(ctx context.Context, in model.NewItem) (*model.Item, error)
	TransitionStatus(ctx context.Context, req lifecycle.TransitionRequest) (*lifecycle.TransitionResult, error)
}

// File is the fixture document.
type File struct {
	Items []Item `yaml:"items"`
}

// Item is one fixture entry. Status defaults to storage.
type Item struct {
	Category   model.Category  `yaml:"category"`
	Name       string          `yaml:"name"`
	Status     model.Status    `yaml:"status"`
	Kind       model.UsageKind `yaml:"kind"`
	Notes      string          `yaml:"notes"`
	Attributes map[string]any  `yaml:"attributes"`
}

// Parse decodes a fixture. Unknown fields are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return &f, nil
		}
		return nil, fmt.Errorf("decoding seed file: %w", err)
	}
	for i, it := range f.Items {
		if it.Status != "" && !it.Status.Valid() {
			return nil, fmt.Errorf("item %d (%s): unknown status %q", i+1, it.Name, it.Status)
		}
	}
	return &f, nil
}

// Load creates every item in f and returns the created items.
func Load(ctx context.Context, svc Service, f *File, actor string) ([]*model.Item, error) {
	created := make([]*model.Item, 0, len(f.Items))
	for i, it := range f.Items {
		item, err := svc.CreateItem(ctx, model.NewItem{
			Category:   it.Category,
			Name:       it.Name,
			Attributes: it.Attributes,
		})
		if err != nil {
			return created, fmt.Errorf("creating item %d (%s): %w", i+1, it.Name, err)
		}

		if it.Status != "" && it.Status != item.Status {
			res, err := svc.TransitionStatus(ctx, lifecycle.TransitionRequest{
				ItemID: item.ID,
				Target: it.Status,
				Kind:   it.Kind,
				Notes:  it.Notes,
				Actor:  actor,
			})
			if err != nil {
				return created, fmt.Errorf("moving item %d (%s) to %s: %w", i+1, it.Name, it.Status, err)
			}
			item = res.Item
		}

		created = append(created, item)
	}
	return created, nil
}
