// internal/integrations/types.go
package integrations

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
)

// ProductMatch is one storefront or POS hit for a UPC lookup. MSSQL backends
// fill TableName/PrimaryKeys; Shopify backends fill VariantID.
type ProductMatch struct {
	StoreID     uint    `json:"store_id"`
	StoreName   string  `json:"store_name"`
	ProductName string  `json:"product_name"`
	SKU         string  `json:"sku,omitempty"`
	Barcode     string  `json:"barcode"`
	Price       string  `json:"price,omitempty"`
	VariantID   string  `json:"variant_id,omitempty"`
	TableName   string  `json:"table_name,omitempty"`
	MatchCount  int     `json:"match_count"`
	PrimaryKeys []int64 `json:"primary_keys,omitempty"`
}

// UpdateOutcome summarises a cross-store UPC rewrite.
type UpdateOutcome struct {
	Updated int      `json:"updated"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// Backend is one connected store. SearchUPC returns every product carrying
// the barcode; UpdateUPC rewrites the barcode on previously found matches.
type Backend interface {
	Name() string
	Test(ctx context.Context) (string, error)
	SearchUPC(ctx context.Context, upc string) ([]ProductMatch, error)
	UpdateUPC(ctx context.Context, matches []ProductMatch, newUPC string) (UpdateOutcome, error)
}

type Factory func(log zerolog.Logger, raw json.RawMessage) (Backend, error)
