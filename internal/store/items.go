package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/erazemk/inventar/internal/apperr"
	"github.com/erazemk/inventar/internal/model"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// CreateItem creates a new item in storage status.
func CreateItem(ctx context.Context, q Querier, in model.NewItem) (*model.Item, error) {
	const op = "store.create_item"

	if err := in.Validate(); err != nil {
		return nil, apperr.Validation(op, "%v", err)
	}

	id, err := newID()
	if err != nil {
		return nil, fmt.Errorf("generating item id: %w", err)
	}

	attrs, err := encodeAttributes(in.Attributes)
	if err != nil {
		return nil, apperr.Validation(op, "encoding attributes: %v", err)
	}

	now := toMillis(time.Now())
	_, err = q.ExecContext(ctx,
		`INSERT INTO items (id, category, name, status, attributes, search_text, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, string(in.Category), in.Name, string(model.StatusStorage), attrs,
		searchText(in.Name, in.Attributes), now, now,
	)
	if err != nil {
		return nil, translate(op, err)
	}

	return GetItem(ctx, q, id)
}

// GetItem returns an item by ID.
func GetItem(ctx context.Context, q Querier, id string) (*model.Item, error) {
	const op = "store.get_item"

	row := q.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound(op, "item", id)
	}
	if err != nil {
		return nil, translate(op, err)
	}
	return item, nil
}

// ListItems returns items matching the filter, ordered and paged.
func ListItems(ctx context.Context, q Querier, filter model.ItemFilter) ([]model.Item, error) {
	const op = "store.list_items"

	query, args, err := buildListQuery(filter.Normalized(), false)
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(op, err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, translate(op, fmt.Errorf("scanning item: %w", err))
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(op, err)
	}
	return items, nil
}

// CountItems returns how many items match the filter, ignoring paging.
func CountItems(ctx context.Context, q Querier, filter model.ItemFilter) (int, error) {
	query, args, err := buildListQuery(filter.Normalized(), true)
	if err != nil {
		return 0, err
	}

	var total int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, translate("store.count_items", err)
	}
	return total, nil
}

// UpdateItem applies a partial update to an item's name and attributes.
// Status is never changed here.
func UpdateItem(ctx context.Context, q Querier, id string, patch model.ItemPatch) (*model.Item, error) {
	const op = "store.update_item"

	current, err := GetItem(ctx, q, id)
	if err != nil {
		return nil, err
	}

	name := current.Name
	if patch.Name != nil {
		name = *patch.Name
	}
	attributes := current.Attributes
	if attributes == nil {
		attributes = map[string]any{}
	}
	for k, v := range patch.Attributes {
		if v == nil {
			delete(attributes, k)
			continue
		}
		attributes[k] = v
	}
	for _, key := range model.RequiredAttributes(current.Category) {
		if v, ok := attributes[key]; !ok || v == nil {
			return nil, apperr.Validation(op, "attribute %q required for category %s", key, current.Category)
		}
	}

	attrs, err := encodeAttributes(attributes)
	if err != nil {
		return nil, apperr.Validation(op, "encoding attributes: %v", err)
	}

	_, err = q.ExecContext(ctx,
		`UPDATE items SET name = ?, attributes = ?, search_text = ?, updated_at = MAX(?, updated_at + 1)
		 WHERE id = ?`,
		name, attrs, searchText(name, attributes), toMillis(time.Now()), id,
	)
	if err != nil {
		return nil, translate(op, err)
	}

	return GetItem(ctx, q, id)
}

// SetItemStatus changes an item's status and bumps updated_at. Only the
// lifecycle coordinator calls this, inside the transition transaction.
func SetItemStatus(ctx context.Context, q Querier, id string, status model.Status, at time.Time) (*model.Item, error) {
	const op = "store.set_item_status"

	if !status.Valid() {
		return nil, apperr.Validation(op, "unknown status %q", status)
	}

	result, err := q.ExecContext(ctx,
		`UPDATE items SET status = ?, updated_at = MAX(?, updated_at + 1) WHERE id = ?`,
		string(status), toMillis(at), id,
	)
	if err != nil {
		return nil, translate(op, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, apperr.NotFound(op, "item", id)
	}

	return GetItem(ctx, q, id)
}

// DeleteItem deletes an item and all of its usage periods. It reports
// whether the item existed.
func DeleteItem(ctx context.Context, q Querier, id string) (bool, error) {
	const op = "store.delete_item"

	if _, err := q.ExecContext(ctx, `DELETE FROM usage_periods WHERE item_id = ?`, id); err != nil {
		return false, translate(op, fmt.Errorf("deleting usage periods: %w", err))
	}

	result, err := q.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return false, translate(op, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, translate(op, err)
	}
	return n > 0, nil
}

func scanItem(row rowScanner) (*model.Item, error) {
	var item model.Item
	var category, status, attrs string
	var createdAt, updatedAt int64
	if err := row.Scan(&item.ID, &category, &item.Name, &status, &attrs, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	item.Category = model.Category(category)
	item.Status = model.Status(status)
	item.CreatedAt = fromMillis(createdAt)
	item.UpdatedAt = fromMillis(updatedAt)
	if err := json.Unmarshal([]byte(attrs), &item.Attributes); err != nil {
		return nil, fmt.Errorf("decoding attributes of item %s: %w", item.ID, err)
	}
	if item.Attributes == nil {
		item.Attributes = map[string]any{}
	}
	return &item, nil
}

func encodeAttributes(attributes map[string]any) (string, error) {
	if attributes == nil {
		return "{}", nil
	}
	data, err := json.Marshal(attributes)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
