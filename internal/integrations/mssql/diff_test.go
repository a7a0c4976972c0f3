package mssql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ruolez/GlobalUPC/internal/progress"
)

func seedCatalogProduct(t *testing.T, db *gorm.DB, id int64, upc, desc string, catID, subID int64, discontinued bool) {
	t.Helper()
	disc := 0
	if discontinued {
		disc = 1
	}
	err := db.Exec(
		"INSERT INTO Items_tbl (ProductID, ProductUPC, ProductDescription, CategoryID, SubCategoryID, Discontinued) VALUES (?, ?, ?, ?, ?, ?)",
		id, upc, desc, catID, subID, disc,
	).Error
	require.NoError(t, err)
}

func TestDiffCatalogsFindsMissing(t *testing.T) {
	source := newTestDB(t)
	target := newTestDB(t)

	require.NoError(t, source.Exec("INSERT INTO Categories_tbl (CategoryID, CategoryName) VALUES (1, 'Beverages')").Error)
	require.NoError(t, source.Exec("INSERT INTO SubCategories_tbl (SubCategoryID, SubCategoryName) VALUES (1, 'Soda')").Error)

	seedCatalogProduct(t, source, 1, "100001", "Cola", 1, 1, false)
	seedCatalogProduct(t, source, 2, "100002", "Lemonade", 1, 1, false)
	seedCatalogProduct(t, target, 50, "100001", "Cola", 1, 1, false)

	var log eventLog
	missing, err := newTestEngine(Options{}).DiffCatalogs(context.Background(), source, target, DiffFilters{}, log.sink())
	require.NoError(t, err)

	require.Len(t, missing, 1)
	assert.Equal(t, "100002", missing[0].UPC)
	assert.Equal(t, "Lemonade", missing[0].Description)
	assert.Equal(t, "Beverages", missing[0].CategoryName)
	assert.Equal(t, "Soda", missing[0].SubCategoryName)

	starting := log.byStatus(progress.EventStarting)
	require.Len(t, starting, 1)
	assert.Equal(t, 2, starting[0].TotalRecords)
}

func TestDiffCatalogsExcludesDiscontinued(t *testing.T) {
	source := newTestDB(t)
	target := newTestDB(t)

	seedCatalogProduct(t, source, 1, "200001", "Active", 1, 1, false)
	seedCatalogProduct(t, source, 2, "200002", "Retired", 1, 1, true)

	missing, err := newTestEngine(Options{}).DiffCatalogs(context.Background(), source, target, DiffFilters{}, nil)
	require.NoError(t, err)

	require.Len(t, missing, 1)
	assert.Equal(t, "200001", missing[0].UPC)

	// opting in brings discontinued products back into the comparison
	all, err := newTestEngine(Options{}).DiffCatalogs(context.Background(), source, target, DiffFilters{IncludeDiscontinued: true}, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDiffCatalogsCarriesDiscontinuedFlag(t *testing.T) {
	source := newTestDB(t)
	target := newTestDB(t)

	seedCatalogProduct(t, source, 1, "200001", "Active", 1, 1, false)
	seedCatalogProduct(t, source, 2, "200002", "Retired", 1, 1, true)

	missing, err := newTestEngine(Options{}).DiffCatalogs(context.Background(), source, target, DiffFilters{IncludeDiscontinued: true}, nil)
	require.NoError(t, err)
	require.Len(t, missing, 2)

	byUPC := map[string]MissingProduct{}
	for _, p := range missing {
		byUPC[p.UPC] = p
	}
	assert.False(t, byUPC["200001"].Discontinued)
	assert.True(t, byUPC["200002"].Discontinued)
}

func TestDiffCatalogsCategoryFilter(t *testing.T) {
	source := newTestDB(t)
	target := newTestDB(t)

	seedCatalogProduct(t, source, 1, "300001", "In category", 1, 1, false)
	seedCatalogProduct(t, source, 2, "300002", "Other category", 2, 2, false)

	missing, err := newTestEngine(Options{}).DiffCatalogs(context.Background(), source, target, DiffFilters{
		CategoryIDs: []int64{1},
	}, nil)
	require.NoError(t, err)

	require.Len(t, missing, 1)
	assert.Equal(t, "300001", missing[0].UPC)
}

func TestDiffCatalogsSkipsBlankUPCs(t *testing.T) {
	source := newTestDB(t)
	target := newTestDB(t)

	seedCatalogProduct(t, source, 1, "", "No barcode", 1, 1, false)
	seedCatalogProduct(t, source, 2, "400002", "Has barcode", 1, 1, false)

	missing, err := newTestEngine(Options{}).DiffCatalogs(context.Background(), source, target, DiffFilters{}, nil)
	require.NoError(t, err)

	require.Len(t, missing, 1)
	assert.Equal(t, "400002", missing[0].UPC)
}

func TestDiffCatalogsChunked(t *testing.T) {
	source := newTestDB(t)
	target := newTestDB(t)

	for i := int64(1); i <= 25; i++ {
		seedCatalogProduct(t, source, i, "500000", "Shared", 1, 1, false)
	}
	seedCatalogProduct(t, target, 1, "500000", "Shared", 1, 1, false)

	var log eventLog
	missing, err := newTestEngine(Options{ChunkSize: 10}).DiffCatalogs(context.Background(), source, target, DiffFilters{}, log.sink())
	require.NoError(t, err)

	assert.Empty(t, missing)
	assert.Len(t, log.byStatus(progress.EventChunkProgress), 3)
}
