package seed

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/inventar/internal/db"
	"github.com/erazemk/inventar/internal/inventory"
	"github.com/erazemk/inventar/internal/model"
)

func TestParseAndLoad(t *testing.T) {
	f, err := os.Open("testdata/household.yaml")
	require.NoError(t, err)
	defer f.Close()

	fixture, err := Parse(f)
	require.NoError(t, err)
	require.Len(t, fixture.Items, 3)

	svc := inventory.NewService(db.NewTestDB(t), nil, nil)
	ctx := context.Background()

	items, err := Load(ctx, svc, fixture, "seed")
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, model.StatusInUse, items[0].Status)
	assert.Equal(t, model.StatusStorage, items[1].Status)
	assert.Equal(t, model.StatusMaintenance, items[2].Status)

	open, err := svc.GetOpenUsagePeriod(ctx, items[0].ID)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, model.UsageLoan, open.Kind)
	assert.Equal(t, "lent to the neighbours", open.Notes)

	findings, err := svc.Audit(ctx)
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse(strings.NewReader("items:\n  - name: X\n    colour: red\n"))
	assert.Error(t, err)
}

func TestParseRejectsUnknownStatus(t *testing.T) {
	_, err := Parse(strings.NewReader("items:\n  - name: X\n    category: other\n    status: lost\n"))
	assert.Error(t, err)
}

func TestParseEmpty(t *testing.T) {
	f, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, f.Items)
}

func TestLoadStopsOnInvalidItem(t *testing.T) {
	fixture, err := Parse(strings.NewReader("items:\n  - name: Lamp\n    category: other\n  - name: Coat\n    category: clothing\n"))
	require.NoError(t, err)

	svc := inventory.NewService(db.NewTestDB(t), nil, nil)
	items, err := Load(context.Background(), svc, fixture, "seed")
	require.Error(t, err)
	assert.Len(t, items, 1)
}
