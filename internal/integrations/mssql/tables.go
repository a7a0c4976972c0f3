package mssql

// Items_tbl is the catalog every detail row must resolve against.
const (
	CatalogTable    = "Items_tbl"
	CatalogPK       = "ProductID"
	UPCColumn       = "ProductUPC"
	DescColumn      = "ProductDescription"
	defaultPKColumn = "LineID"
	unknownSentinel = "Unknown"
	unknownProduct  = "Unknown Product"
	noMatchSentinel = "N/A"
)

// HeaderJoin describes the header table a detail table joins for its
// document date. Detail tables carry no date column of their own.
type HeaderJoin struct {
	Table      string
	JoinColumn string
	DateColumn string
}

// TableSpec describes one scannable table. CrossSource marks tables whose
// rows participate in cross-store audits; quotation tables are store-local
// documents and stay same-source only. DateColumn is set when the table
// carries its own date and no header join is needed.
type TableSpec struct {
	Name        string
	PKColumn    string
	CrossSource bool
	DateColumn  string
	Header      *HeaderJoin
}

var detailTables = []TableSpec{
	{
		Name:     "QuotationsDetails_tbl",
		PKColumn: "LineID",
		Header:   &HeaderJoin{Table: "Quotations_tbl", JoinColumn: "QuotationID", DateColumn: "QuotationDate"},
	},
	{
		Name:       "QuotationDetails",
		PKColumn:   "id",
		DateColumn: "CreatedDate",
	},
	{
		Name:        "PurchaseOrdersDetails_tbl",
		PKColumn:    "LineID",
		CrossSource: true,
		Header:      &HeaderJoin{Table: "PurchaseOrders_tbl", JoinColumn: "OrderID", DateColumn: "OrderDate"},
	},
	{
		Name:        "InvoicesDetails_tbl",
		PKColumn:    "LineID",
		CrossSource: true,
		Header:      &HeaderJoin{Table: "Invoices_tbl", JoinColumn: "InvoiceID", DateColumn: "InvoiceDate"},
	},
	{
		Name:        "CreditMemosDetails_tbl",
		PKColumn:    "LineID",
		CrossSource: true,
		Header:      &HeaderJoin{Table: "CreditMemos_tbl", JoinColumn: "MemoID", DateColumn: "MemoDate"},
	},
	{
		Name:        "PurchasesReturnsDetails_tbl",
		PKColumn:    "LineID",
		CrossSource: true,
		Header:      &HeaderJoin{Table: "PurchasesReturns_tbl", JoinColumn: "ReturnID", DateColumn: "ReturnDate"},
	},
}

// DetailTables returns every auditable detail table. crossOnly restricts the
// slice to tables whose documents travel between stores.
func DetailTables(crossOnly bool) []TableSpec {
	if !crossOnly {
		out := make([]TableSpec, len(detailTables))
		copy(out, detailTables)
		return out
	}
	var out []TableSpec
	for _, t := range detailTables {
		if t.CrossSource {
			out = append(out, t)
		}
	}
	return out
}

// SearchTables returns the tables a UPC search walks: the catalog first,
// then every detail table.
func SearchTables() []TableSpec {
	out := []TableSpec{{Name: CatalogTable, PKColumn: CatalogPK}}
	return append(out, DetailTables(false)...)
}

// PKColumnFor resolves the primary key column for a table name, including
// tables named by callers that are not in the static specs.
func PKColumnFor(table string) string {
	switch table {
	case CatalogTable:
		return CatalogPK
	case "QuotationDetails":
		return "id"
	}
	for _, t := range detailTables {
		if t.Name == table {
			return t.PKColumn
		}
	}
	return defaultPKColumn
}
