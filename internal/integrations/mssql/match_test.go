package mssql

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruolez/GlobalUPC/internal/progress"
)

func TestMatchByDescriptionResolvesUPC(t *testing.T) {
	db := newTestDB(t)
	seedItem(t, db, 1, "012345", "Widget A")

	orphans := []OrphanRecord{
		{TableName: "InvoicesDetails_tbl", PrimaryKey: 10, UPC: "999999", Description: "Widget A"},
	}

	e := newTestEngine(Options{})
	matches, err := e.MatchByDescription(context.Background(), db, orphans, nil)
	require.NoError(t, err)

	require.Len(t, matches, 1)
	m := matches[0]
	assert.True(t, m.Found)
	assert.Equal(t, "012345", m.ItemsUPC)
	assert.Equal(t, "Widget A", m.MatchValue)
	assert.Equal(t, "999999", m.OrphanUPC)
	assert.Equal(t, int64(10), m.PrimaryKey)
}

func TestMatchByDescriptionNoMatchFallback(t *testing.T) {
	db := newTestDB(t)
	seedItem(t, db, 1, "012345", "Widget A")

	orphans := []OrphanRecord{
		{TableName: "InvoicesDetails_tbl", PrimaryKey: 1, UPC: "111111", Description: "Unknown"},
		{TableName: "InvoicesDetails_tbl", PrimaryKey: 2, UPC: "222222", Description: ""},
		{TableName: "InvoicesDetails_tbl", PrimaryKey: 3, UPC: "333333", Description: "Nonexistent product"},
	}

	matches, err := newTestEngine(Options{}).MatchByDescription(context.Background(), db, orphans, nil)
	require.NoError(t, err)
	require.Len(t, matches, 3)

	for _, m := range matches[:2] {
		assert.False(t, m.Found)
		assert.Empty(t, m.ItemsUPC)
		assert.Equal(t, "N/A", m.MatchValue)
	}
	// usable key that simply found nothing keeps its value
	assert.False(t, matches[2].Found)
	assert.Equal(t, "Nonexistent product", matches[2].MatchValue)
}

func TestMatchByProductID(t *testing.T) {
	db := newTestDB(t)
	seedItem(t, db, 42, "424242", "Answer")

	orphans := []OrphanRecord{
		{TableName: "InvoicesDetails_tbl", PrimaryKey: 1, UPC: "111111", ProductID: int64p(42), Description: "Answer"},
		{TableName: "InvoicesDetails_tbl", PrimaryKey: 2, UPC: "222222", ProductID: nil, Description: "No id"},
		{TableName: "InvoicesDetails_tbl", PrimaryKey: 3, UPC: "333333", ProductID: int64p(99), Description: "Gone"},
	}

	matches, err := newTestEngine(Options{}).MatchByProductID(context.Background(), db, orphans, nil)
	require.NoError(t, err)
	require.Len(t, matches, 3)

	assert.True(t, matches[0].Found)
	assert.Equal(t, "424242", matches[0].ItemsUPC)
	assert.Equal(t, "42", matches[0].MatchValue)

	assert.False(t, matches[1].Found)
	assert.Equal(t, "N/A", matches[1].MatchValue)

	assert.False(t, matches[2].Found)
	assert.Equal(t, "99", matches[2].MatchValue)
}

func TestMatchBatchingEmitsPerBatchProgress(t *testing.T) {
	db := newTestDB(t)
	seedItem(t, db, 1, "100000", "Bulk item")

	var orphans []OrphanRecord
	for i := int64(1); i <= 7; i++ {
		orphans = append(orphans, OrphanRecord{
			TableName:   "InvoicesDetails_tbl",
			PrimaryKey:  i,
			UPC:         fmt.Sprintf("%06d", i),
			Description: "Bulk item",
		})
	}

	var events []progress.Event
	e := newTestEngine(Options{MatchBatch: 3})
	matches, err := e.MatchByDescription(context.Background(), db, orphans, func(ev progress.Event) {
		events = append(events, ev)
	})
	require.NoError(t, err)
	require.Len(t, matches, 7)

	// one event per batch carrying the cumulative checked count
	require.Len(t, events, 3)
	assert.Equal(t, 3, events[0].Current)
	assert.Equal(t, 6, events[1].Current)
	assert.Equal(t, 7, events[2].Current)
	for _, ev := range events {
		assert.Equal(t, progress.EventChecked, ev.Status)
		assert.Equal(t, 7, ev.Total)
		assert.True(t, ev.Matched)
	}
}

func TestMatchSkipsCatalogRowsWithoutUPC(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Exec(
		"INSERT INTO Items_tbl (ProductID, ProductUPC, ProductDescription) VALUES (1, NULL, 'Widget B')",
	).Error)
	require.NoError(t, db.Exec(
		"INSERT INTO Items_tbl (ProductID, ProductUPC, ProductDescription) VALUES (2, '', 'Widget C')",
	).Error)
	seedItem(t, db, 3, "345678", "Widget D")

	orphans := []OrphanRecord{
		{TableName: "InvoicesDetails_tbl", PrimaryKey: 1, UPC: "111111", Description: "Widget B"},
		{TableName: "InvoicesDetails_tbl", PrimaryKey: 2, UPC: "222222", Description: "Widget C"},
		{TableName: "InvoicesDetails_tbl", PrimaryKey: 3, UPC: "333333", Description: "Widget D"},
	}

	matches, err := newTestEngine(Options{}).MatchByDescription(context.Background(), db, orphans, nil)
	require.NoError(t, err)
	require.Len(t, matches, 3)

	// NULL and blank catalog UPCs are not usable replacements
	for _, m := range matches[:2] {
		assert.False(t, m.Found, "description %s", m.MatchValue)
		assert.Empty(t, m.ItemsUPC)
	}
	assert.True(t, matches[2].Found)
	assert.Equal(t, "345678", matches[2].ItemsUPC)
}

func TestMatchByProductIDSkipsCatalogRowsWithoutUPC(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Exec(
		"INSERT INTO Items_tbl (ProductID, ProductUPC, ProductDescription) VALUES (7, NULL, 'No barcode')",
	).Error)

	orphans := []OrphanRecord{
		{TableName: "InvoicesDetails_tbl", PrimaryKey: 1, UPC: "111111", ProductID: int64p(7), Description: "No barcode"},
	}

	matches, err := newTestEngine(Options{}).MatchByProductID(context.Background(), db, orphans, nil)
	require.NoError(t, err)

	require.Len(t, matches, 1)
	assert.False(t, matches[0].Found)
	assert.Empty(t, matches[0].ItemsUPC)
	assert.Equal(t, "7", matches[0].MatchValue)
}

func TestMatchPreservesInputOrder(t *testing.T) {
	db := newTestDB(t)
	seedItem(t, db, 1, "100000", "A")
	seedItem(t, db, 2, "200000", "B")

	orphans := []OrphanRecord{
		{TableName: "InvoicesDetails_tbl", PrimaryKey: 5, UPC: "x", Description: "B"},
		{TableName: "InvoicesDetails_tbl", PrimaryKey: 6, UPC: "y", Description: "A"},
	}
	matches, err := newTestEngine(Options{MatchBatch: 1}).MatchByDescription(context.Background(), db, orphans, nil)
	require.NoError(t, err)

	require.Len(t, matches, 2)
	assert.Equal(t, int64(5), matches[0].PrimaryKey)
	assert.Equal(t, "200000", matches[0].ItemsUPC)
	assert.Equal(t, int64(6), matches[1].PrimaryKey)
	assert.Equal(t, "100000", matches[1].ItemsUPC)
}
