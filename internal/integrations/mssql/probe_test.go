package mssql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbeExistenceFindsCatalogUPCs(t *testing.T) {
	db := newTestDB(t)
	seedItem(t, db, 1, "100001", "Widget A")
	seedItem(t, db, 2, "100002", "Widget B")

	e := newTestEngine(Options{})
	found, err := e.ProbeExistence(context.Background(), db, []string{"100001", "100002", "999999"})
	require.NoError(t, err)

	assert.Contains(t, found, "100001")
	assert.Contains(t, found, "100002")
	assert.NotContains(t, found, "999999")
}

func TestProbeExistenceCeilingEquivalence(t *testing.T) {
	db := newTestDB(t)
	upcs := make([]string, 0, 50)
	for i := 0; i < 50; i++ {
		upc := "2000" + string(rune('0'+i%10)) + string(rune('0'+i/10))
		if i%3 == 0 {
			seedItem(t, db, int64(i+1), upc, "Item")
		}
		upcs = append(upcs, upc)
	}

	wide, err := newTestEngine(Options{ParamCeiling: 1000}).ProbeExistence(context.Background(), db, upcs)
	require.NoError(t, err)
	narrow, err := newTestEngine(Options{ParamCeiling: 3}).ProbeExistence(context.Background(), db, upcs)
	require.NoError(t, err)

	assert.Equal(t, wide, narrow)
	assert.NotEmpty(t, wide)
}

func TestProbeExistenceSkipsBlanksAndDuplicates(t *testing.T) {
	db := newTestDB(t)
	seedItem(t, db, 1, "300001", "Widget")

	e := newTestEngine(Options{ParamCeiling: 2})
	found, err := e.ProbeExistence(context.Background(), db, []string{"", "  ", "300001", "300001", " 300001 "})
	require.NoError(t, err)

	assert.Len(t, found, 1)
	assert.Contains(t, found, "300001")
}

func TestProbeExistenceEmptyInput(t *testing.T) {
	db := newTestDB(t)
	found, err := newTestEngine(Options{}).ProbeExistence(context.Background(), db, nil)
	require.NoError(t, err)
	assert.Empty(t, found)
}
