package mssql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruolez/GlobalUPC/internal/progress"
)

func TestApplyUpdatesRowIsolation(t *testing.T) {
	db := newTestDB(t)
	for i := int64(1); i <= 10; i++ {
		if i == 3 {
			continue // row 3 does not exist
		}
		seedItem(t, db, i, "000000", "Item")
	}

	reqs := make([]UpdateRequest, 0, 10)
	for i := int64(1); i <= 10; i++ {
		reqs = append(reqs, UpdateRequest{TableName: "Items_tbl", PrimaryKey: i, NewUPC: "111111"})
	}

	e := newTestEngine(Options{UpdateBatch: 4})
	results, err := e.ApplyUpdates(context.Background(), db, reqs, nil)
	require.NoError(t, err)
	require.Len(t, results, 10)

	for _, r := range results {
		if r.PrimaryKey == 3 {
			assert.False(t, r.Success)
			assert.Equal(t, "row not found", r.Error)
			continue
		}
		assert.True(t, r.Success, "row %d should update", r.PrimaryKey)
		assert.Equal(t, "111111", r.UpdatedUPC)
	}

	var count int
	require.NoError(t, db.Raw("SELECT COUNT(*) FROM Items_tbl WHERE ProductUPC = ?", "111111").Scan(&count).Error)
	assert.Equal(t, 9, count)
}

func TestApplyUpdatesBatchEvents(t *testing.T) {
	db := newTestDB(t)
	for i := int64(1); i <= 5; i++ {
		seedItem(t, db, i, "000000", "Item")
	}
	reqs := make([]UpdateRequest, 0, 5)
	for i := int64(1); i <= 5; i++ {
		reqs = append(reqs, UpdateRequest{TableName: "Items_tbl", PrimaryKey: i, NewUPC: "222222"})
	}

	var events []progress.Event
	e := newTestEngine(Options{UpdateBatch: 2})
	_, err := e.ApplyUpdates(context.Background(), db, reqs, func(ev progress.Event) {
		events = append(events, ev)
	})
	require.NoError(t, err)

	require.Len(t, events, 3)
	assert.Equal(t, 1, events[0].Batch)
	assert.Equal(t, 3, events[0].TotalBatches)
	assert.Equal(t, 5, events[2].Current)
	assert.Equal(t, 5, events[2].Updated)
	assert.Equal(t, 0, events[2].Failed)
}

func TestApplyUpdatesResolvesPrimaryKeyColumn(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Exec(
		"INSERT INTO QuotationDetails (id, CreatedDate, ProductDescription, ProductUPC) VALUES (7, '2024-01-01', 'Quote line', '000000')",
	).Error)

	results, err := newTestEngine(Options{}).ApplyUpdates(context.Background(), db, []UpdateRequest{
		{TableName: "QuotationDetails", PrimaryKey: 7, NewUPC: "333333"},
	}, nil)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.True(t, results[0].Success)

	var upc string
	require.NoError(t, db.Raw("SELECT ProductUPC FROM QuotationDetails WHERE id = 7").Scan(&upc).Error)
	assert.Equal(t, "333333", upc)
}

func TestUpdateUPCInTableBulk(t *testing.T) {
	db := newTestDB(t)
	seedInvoiceHeader(t, db, 1, "2024-01-15")
	seedInvoiceDetails(t, db, []detailRow{
		{LineID: 1, InvoiceID: 1, Desc: "a", UPC: "old"},
		{LineID: 2, InvoiceID: 1, Desc: "b", UPC: "old"},
		{LineID: 3, InvoiceID: 1, Desc: "c", UPC: "keep"},
	})

	affected, err := newTestEngine(Options{}).UpdateUPCInTable(context.Background(), db, "InvoicesDetails_tbl", []int64{1, 2}, "new")
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	var kept string
	require.NoError(t, db.Raw("SELECT ProductUPC FROM InvoicesDetails_tbl WHERE LineID = 3").Scan(&kept).Error)
	assert.Equal(t, "keep", kept)
}

func TestUpdateUPCInTableSlicesUnderParamCeiling(t *testing.T) {
	db := newTestDB(t)
	seedInvoiceHeader(t, db, 1, "2024-01-15")
	rows := make([]detailRow, 0, 5)
	for i := int64(1); i <= 5; i++ {
		rows = append(rows, detailRow{LineID: i, InvoiceID: 1, Desc: "x", UPC: "old"})
	}
	seedInvoiceDetails(t, db, rows)

	e := newTestEngine(Options{ParamCeiling: 2})
	affected, err := e.UpdateUPCInTable(context.Background(), db, "InvoicesDetails_tbl", []int64{1, 2, 3, 4, 5}, "new")
	require.NoError(t, err)
	assert.Equal(t, int64(5), affected)

	var count int
	require.NoError(t, db.Raw("SELECT COUNT(*) FROM InvoicesDetails_tbl WHERE ProductUPC = 'new'").Scan(&count).Error)
	assert.Equal(t, 5, count)
}

func TestUpdateUPCInTableEmpty(t *testing.T) {
	db := newTestDB(t)
	affected, err := newTestEngine(Options{}).UpdateUPCInTable(context.Background(), db, "Items_tbl", nil, "x")
	require.NoError(t, err)
	assert.Zero(t, affected)
}
