package store

import (
	"strings"

	"github.com/erazemk/inventar/internal/apperr"
	"github.com/erazemk/inventar/internal/model"
)

const itemColumns = `id, category, name, status, attributes, created_at, updated_at`

// sortColumns is the closed set of sort fields. Numeric attribute fields are
// read from the JSON attributes column.
var sortColumns = map[string]string{
	"id":          "id",
	"name":        "name COLLATE NOCASE",
	"category":    "category",
	"created_at":  "created_at",
	"createdat":   "created_at",
	"updated_at":  "updated_at",
	"updatedat":   "updated_at",
	"price":       "json_extract(attributes, '$.price')",
	"weight":      "json_extract(attributes, '$.weight')",
	"screen_size": "json_extract(attributes, '$.screen_size')",
	"pages":       "json_extract(attributes, '$.pages')",
}

// SortFields returns the accepted sort field names.
func SortFields() []string {
	fields := make([]string, 0, len(sortColumns))
	for name := range sortColumns {
		fields = append(fields, name)
	}
	return fields
}

// buildListQuery renders the SELECT for a normalized filter. When count is
// true it renders the matching COUNT(*) without ordering or paging.
func buildListQuery(f model.ItemFilter, count bool) (string, []any, error) {
	const op = "store.list_items"

	var where []string
	var args []any

	if f.Status != "" {
		if !f.Status.Valid() {
			return "", nil, apperr.Validation(op, "unknown status %q", f.Status)
		}
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.Category != "" {
		if !f.Category.Valid() {
			return "", nil, apperr.Validation(op, "unknown category %q", f.Category)
		}
		where = append(where, "category = ?")
		args = append(args, string(f.Category))
	}
	if f.Search != "" {
		where = append(where, `search_text LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(f.Search))
	}

	var b strings.Builder
	if count {
		b.WriteString("SELECT COUNT(*) FROM items")
	} else {
		b.WriteString("SELECT " + itemColumns + " FROM items")
	}
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	if count {
		return b.String(), args, nil
	}

	column, ok := sortColumns[f.SortField]
	if !ok {
		return "", nil, apperr.Validation(op, "unknown sort field %q", f.SortField)
	}
	var dir string
	switch f.SortOrder {
	case model.SortAsc:
		dir = "ASC"
	case model.SortDesc:
		dir = "DESC"
	default:
		return "", nil, apperr.Validation(op, "unknown sort order %q", f.SortOrder)
	}

	b.WriteString(" ORDER BY " + column + " " + dir)
	if column != "id" {
		b.WriteString(", id " + dir)
	}
	b.WriteString(" LIMIT ? OFFSET ?")
	args = append(args, f.Limit, f.Offset)

	return b.String(), args, nil
}
