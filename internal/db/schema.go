package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema. Timestamps are unix milliseconds.
const schema = `
CREATE TABLE IF NOT EXISTS items (
    id          TEXT PRIMARY KEY,
    category    TEXT NOT NULL CHECK (category IN ('clothing', 'electronics', 'furniture', 'kitchen', 'tools', 'books', 'other')),
    name        TEXT NOT NULL CHECK (length(trim(name)) > 0),
    status      TEXT NOT NULL DEFAULT 'storage' CHECK (status IN ('in_use', 'storage', 'maintenance')),
    attributes  TEXT NOT NULL DEFAULT '{}' CHECK (json_valid(attributes)),
    search_text TEXT NOT NULL DEFAULT '',
    created_at  INTEGER NOT NULL,
    updated_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_items_status ON items(status);
CREATE INDEX IF NOT EXISTS idx_items_category ON items(category);

CREATE TABLE IF NOT EXISTS usage_periods (
    id         TEXT PRIMARY KEY,
    item_id    TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
    started_at INTEGER NOT NULL,
    ended_at   INTEGER,
    kind       TEXT NOT NULL CHECK (length(kind) > 0),
    notes      TEXT NOT NULL DEFAULT '',
    CHECK (ended_at IS NULL OR ended_at >= started_at)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_usage_periods_open
    ON usage_periods(item_id) WHERE ended_at IS NULL;

CREATE INDEX IF NOT EXISTS idx_usage_periods_item
    ON usage_periods(item_id, started_at);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// OpenPeriodIndex names the partial unique index that enforces one open usage
// period per item. The store matches constraint errors against it.
const OpenPeriodIndex = "idx_usage_periods_open"

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: the usage history dashboard orders open periods by start.
	`CREATE INDEX IF NOT EXISTS idx_usage_periods_open_started
	     ON usage_periods(started_at) WHERE ended_at IS NULL`,
}

// EnsureSchema creates all tables and indexes if they don't already exist and
// applies pending migrations.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
