package inventory

import (
	"context"
	"database/sql"
	"encoding/json"

	"go.opentelemetry.io/otel/attribute"

	"github.com/erazemk/inventar/internal/apperr"
	"github.com/erazemk/inventar/internal/cache"
	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/store"
)

// GetItem returns an item by ID.
func (s *Service) GetItem(ctx context.Context, id string) (item *model.Item, err error) {
	ctx, end := s.start(ctx, "GetItem", attribute.String("item.id", id))
	defer func() { end(err) }()

	cached, err := cache.GetOrLoad(ctx, s.cache, "item:"+id, []string{cache.ItemTag(id)},
		func(ctx context.Context) (*model.Item, error) {
			return store.GetItem(ctx, s.db, id)
		})
	if err != nil {
		return nil, err
	}
	return cached.Clone(), nil
}

// ListItems returns one page of items matching filter, with the total count.
func (s *Service) ListItems(ctx context.Context, filter model.ItemFilter) (page *model.ItemPage, err error) {
	filter = filter.Normalized()
	key, err := listKey(filter)
	if err != nil {
		return nil, err
	}

	ctx, end := s.start(ctx, "ListItems", attribute.String("filter", key))
	defer func() { end(err) }()

	cached, err := cache.GetOrLoad(ctx, s.cache, key, cache.ListTags(filter),
		func(ctx context.Context) (*model.ItemPage, error) {
			items, err := store.ListItems(ctx, s.db, filter)
			if err != nil {
				return nil, err
			}
			total, err := store.CountItems(ctx, s.db, filter)
			if err != nil {
				return nil, err
			}
			return &model.ItemPage{Items: items, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
		})
	if err != nil {
		return nil, err
	}

	out := *cached
	out.Items = make([]model.Item, len(cached.Items))
	for i := range cached.Items {
		out.Items[i] = *cached.Items[i].Clone()
	}
	return &out, nil
}

// CreateItem stores a new item in storage status.
func (s *Service) CreateItem(ctx context.Context, in model.NewItem) (item *model.Item, err error) {
	ctx, end := s.start(ctx, "CreateItem", attribute.String("item.category", string(in.Category)))
	defer func() { end(err) }()

	item, err = store.CreateItem(ctx, s.db, in)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, cache.WriteEffectTags(nil, item, false))
	return item, nil
}

// UpdateItem applies a partial update to an item's name and attributes.
func (s *Service) UpdateItem(ctx context.Context, id string, patch model.ItemPatch) (item *model.Item, err error) {
	ctx, end := s.start(ctx, "UpdateItem", attribute.String("item.id", id))
	defer func() { end(err) }()

	var old *model.Item
	err = store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		if old, err = store.GetItem(ctx, tx, id); err != nil {
			return err
		}
		item, err = store.UpdateItem(ctx, tx, id, patch)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, cache.WriteEffectTags(old, item, false))
	return item, nil
}

// DeleteItem deletes an item and its usage history. It reports whether the
// item existed.
func (s *Service) DeleteItem(ctx context.Context, id string) (deleted bool, err error) {
	ctx, end := s.start(ctx, "DeleteItem", attribute.String("item.id", id))
	defer func() { end(err) }()

	var old *model.Item
	err = store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		old, err = store.GetItem(ctx, tx, id)
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		deleted, err = store.DeleteItem(ctx, tx, id)
		return err
	})
	if err != nil {
		return false, err
	}
	if deleted {
		s.invalidate(ctx, cache.WriteEffectTags(old, nil, true))
	}
	return deleted, nil
}

// listKey renders a normalized filter as a cache key.
func listKey(f model.ItemFilter) (string, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return "", apperr.Wrap(apperr.KindValidationFailed, "inventory.list_items", "encoding filter", err)
	}
	return "items:" + string(data), nil
}
