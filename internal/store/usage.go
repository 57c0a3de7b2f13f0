package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/inventar/internal/apperr"
	"github.com/erazemk/inventar/internal/model"
)

const usageColumns = `id, item_id, started_at, ended_at, kind, notes`

// CreateUsagePeriod opens a usage period for an item. The partial unique
// index on open periods rejects the insert with ConflictAlreadyOpen when the
// item already has one, including when a concurrent transaction inserted it.
func CreateUsagePeriod(ctx context.Context, q Querier, itemID string, startedAt time.Time, kind model.UsageKind, notes string) (*model.UsagePeriod, error) {
	const op = "store.create_usage_period"

	if kind == "" {
		kind = model.DefaultUsageKind
	}

	id, err := newID()
	if err != nil {
		return nil, fmt.Errorf("generating usage period id: %w", err)
	}

	_, err = q.ExecContext(ctx,
		`INSERT INTO usage_periods (id, item_id, started_at, kind, notes) VALUES (?, ?, ?, ?, ?)`,
		id, itemID, toMillis(startedAt), string(kind), notes,
	)
	if err != nil {
		return nil, translate(op, err)
	}

	return GetUsagePeriod(ctx, q, id)
}

// GetUsagePeriod returns a usage period by ID.
func GetUsagePeriod(ctx context.Context, q Querier, id string) (*model.UsagePeriod, error) {
	const op = "store.get_usage_period"

	row := q.QueryRowContext(ctx, `SELECT `+usageColumns+` FROM usage_periods WHERE id = ?`, id)
	p, err := scanUsagePeriod(row)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound(op, "usage period", id)
	}
	if err != nil {
		return nil, translate(op, err)
	}
	return p, nil
}

// FindOpenUsagePeriod returns the open usage period of an item, or nil when
// the item has none.
func FindOpenUsagePeriod(ctx context.Context, q Querier, itemID string) (*model.UsagePeriod, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+usageColumns+` FROM usage_periods WHERE item_id = ? AND ended_at IS NULL`, itemID,
	)
	p, err := scanUsagePeriod(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, translate("store.find_open_usage_period", err)
	}
	return p, nil
}

// CloseUsagePeriod ends an open usage period. When notes is non-nil it
// replaces the period's notes. The stored end is always after the start.
func CloseUsagePeriod(ctx context.Context, q Querier, id string, endedAt time.Time, notes *string) (*model.UsagePeriod, error) {
	const op = "store.close_usage_period"

	current, err := GetUsagePeriod(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if !current.Open() {
		return nil, apperr.Validation(op, "usage period %s already ended", id)
	}

	// Timestamps have millisecond precision. A close in the same millisecond
	// as the open, or after a clock step backwards, ends one millisecond after
	// the start so a closed period always has a positive length.
	end := toMillis(endedAt)
	if start := toMillis(current.StartedAt); end <= start {
		end = start + 1
	}

	_, err = q.ExecContext(ctx,
		`UPDATE usage_periods SET ended_at = ?, notes = COALESCE(?, notes) WHERE id = ?`,
		end, notes, id,
	)
	if err != nil {
		return nil, translate(op, err)
	}

	return GetUsagePeriod(ctx, q, id)
}

// UpdateUsagePeriod writes a corrected period back. The caller is responsible
// for checking that the correction keeps status and history coherent; the
// schema still rejects a second open period and an end before the start.
func UpdateUsagePeriod(ctx context.Context, q Querier, p *model.UsagePeriod) (*model.UsagePeriod, error) {
	const op = "store.update_usage_period"

	var endedAt *int64
	if p.EndedAt != nil {
		end := toMillis(*p.EndedAt)
		endedAt = &end
	}

	result, err := q.ExecContext(ctx,
		`UPDATE usage_periods SET started_at = ?, ended_at = ?, kind = ?, notes = ? WHERE id = ?`,
		toMillis(p.StartedAt), endedAt, string(p.Kind), p.Notes, p.ID,
	)
	if err != nil {
		return nil, translate(op, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, apperr.NotFound(op, "usage period", p.ID)
	}

	return GetUsagePeriod(ctx, q, p.ID)
}

// ListUsagePeriods returns an item's usage history, newest first.
func ListUsagePeriods(ctx context.Context, q Querier, itemID string) ([]model.UsagePeriod, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+usageColumns+` FROM usage_periods WHERE item_id = ? ORDER BY started_at DESC, id DESC`, itemID,
	)
	if err != nil {
		return nil, translate("store.list_usage_periods", err)
	}
	defer rows.Close()

	return scanUsagePeriods(rows)
}

// ListOpenUsagePeriods returns every open usage period, oldest first.
func ListOpenUsagePeriods(ctx context.Context, q Querier) ([]model.UsagePeriod, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+usageColumns+` FROM usage_periods WHERE ended_at IS NULL ORDER BY started_at, id`,
	)
	if err != nil {
		return nil, translate("store.list_open_usage_periods", err)
	}
	defer rows.Close()

	return scanUsagePeriods(rows)
}

// CountOpenUsagePeriods returns how many open periods an item has. Anything
// other than 0 or 1 means the schema was bypassed.
func CountOpenUsagePeriods(ctx context.Context, q Querier, itemID string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM usage_periods WHERE item_id = ? AND ended_at IS NULL`, itemID,
	).Scan(&n)
	if err != nil {
		return 0, translate("store.count_open_usage_periods", err)
	}
	return n, nil
}

func scanUsagePeriod(row rowScanner) (*model.UsagePeriod, error) {
	var p model.UsagePeriod
	var startedAt int64
	var endedAt sql.NullInt64
	var kind string
	if err := row.Scan(&p.ID, &p.ItemID, &startedAt, &endedAt, &kind, &p.Notes); err != nil {
		return nil, err
	}
	p.StartedAt = fromMillis(startedAt)
	if endedAt.Valid {
		end := fromMillis(endedAt.Int64)
		p.EndedAt = &end
	}
	p.Kind = model.UsageKind(kind)
	return &p, nil
}

func scanUsagePeriods(rows *sql.Rows) ([]model.UsagePeriod, error) {
	periods := []model.UsagePeriod{}
	for rows.Next() {
		p, err := scanUsagePeriod(rows)
		if err != nil {
			return nil, translate("store.scan_usage_period", err)
		}
		periods = append(periods, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("store.scan_usage_period", err)
	}
	return periods, nil
}
