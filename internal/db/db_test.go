package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureSchemaIdempotent(t *testing.T) {
	database := NewTestDB(t)

	require.NoError(t, EnsureSchema(database))

	var name string
	err := database.QueryRow(
		`SELECT name FROM sqlite_master WHERE type = 'index' AND name = ?`, OpenPeriodIndex,
	).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, OpenPeriodIndex, name)
}

func TestForeignKeysEnabledOnEveryConnection(t *testing.T) {
	database := NewTestDB(t)
	database.SetMaxOpenConns(3)

	for i := 0; i < 3; i++ {
		conn, err := database.Conn(t.Context())
		require.NoError(t, err)
		defer conn.Close()

		var enabled int
		require.NoError(t, conn.QueryRowContext(t.Context(), `PRAGMA foreign_keys`).Scan(&enabled))
		assert.Equal(t, 1, enabled)
	}
}

func TestPartialUniqueIndexRejectsSecondOpenPeriod(t *testing.T) {
	database := NewTestDB(t)

	_, err := database.Exec(`INSERT INTO items (id, category, name, created_at, updated_at) VALUES ('i1', 'other', 'Lamp', 1, 1)`)
	require.NoError(t, err)

	_, err = database.Exec(`INSERT INTO usage_periods (id, item_id, started_at, kind) VALUES ('p1', 'i1', 10, 'regular')`)
	require.NoError(t, err)

	_, err = database.Exec(`INSERT INTO usage_periods (id, item_id, started_at, kind) VALUES ('p2', 'i1', 20, 'regular')`)
	assert.Error(t, err, "second open period must be rejected")

	// Closed periods do not count against the index.
	_, err = database.Exec(`UPDATE usage_periods SET ended_at = 15 WHERE id = 'p1'`)
	require.NoError(t, err)
	_, err = database.Exec(`INSERT INTO usage_periods (id, item_id, started_at, kind) VALUES ('p2', 'i1', 20, 'regular')`)
	assert.NoError(t, err)
}

func TestEndBeforeStartRejected(t *testing.T) {
	database := NewTestDB(t)

	_, err := database.Exec(`INSERT INTO items (id, category, name, created_at, updated_at) VALUES ('i1', 'other', 'Lamp', 1, 1)`)
	require.NoError(t, err)

	_, err = database.Exec(`INSERT INTO usage_periods (id, item_id, started_at, ended_at, kind) VALUES ('p1', 'i1', 10, 5, 'regular')`)
	assert.Error(t, err)
}
