// internal/integrations/shopify/backend.go
package shopify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ruolez/GlobalUPC/internal/integrations"
)

const BackendName = "shopify"

func init() {
	integrations.Register(BackendName, NewBackend)
}

type backendConfig struct {
	StoreID    uint   `json:"store_id"`
	StoreName  string `json:"store_name"`
	Connection Config `json:"connection"`
}

// Backend exposes one Shopify storefront through the common store interface.
type Backend struct {
	cfg    backendConfig
	client *Client
}

func NewBackend(log zerolog.Logger, raw json.RawMessage) (integrations.Backend, error) {
	var cfg backendConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("shopify config: %w", err)
	}
	if cfg.Connection.ShopDomain == "" || cfg.Connection.AdminAPIKey == "" {
		return nil, fmt.Errorf("shopify config: shop_domain and admin_api_key are required")
	}
	return &Backend{
		cfg:    cfg,
		client: NewClient(log, cfg.Connection),
	}, nil
}

func (b *Backend) Name() string { return BackendName }

func (b *Backend) Test(ctx context.Context) (string, error) {
	return b.client.TestConnection(ctx)
}

func (b *Backend) SearchUPC(ctx context.Context, upc string) ([]integrations.ProductMatch, error) {
	variants, err := b.client.SearchByBarcode(ctx, upc)
	if err != nil {
		return nil, err
	}
	out := make([]integrations.ProductMatch, 0, len(variants))
	for _, v := range variants {
		name := v.Product.Title
		if v.Title != "" && v.Title != "Default Title" {
			name = fmt.Sprintf("%s - %s", v.Product.Title, v.Title)
		}
		out = append(out, integrations.ProductMatch{
			StoreID:     b.cfg.StoreID,
			StoreName:   b.cfg.StoreName,
			ProductName: name,
			SKU:         v.SKU,
			Barcode:     v.Barcode,
			Price:       v.Price,
			VariantID:   v.ID,
			MatchCount:  1,
		})
	}
	return out, nil
}

func (b *Backend) UpdateUPC(ctx context.Context, matches []integrations.ProductMatch, newUPC string) (integrations.UpdateOutcome, error) {
	variants := make([]variantNode, 0, len(matches))
	for _, m := range matches {
		if m.VariantID == "" {
			continue
		}
		// re-resolve so product grouping and current barcode are fresh
		found, err := b.client.SearchByBarcode(ctx, m.Barcode)
		if err != nil {
			return integrations.UpdateOutcome{}, err
		}
		for _, v := range found {
			if v.ID == m.VariantID {
				variants = append(variants, v)
			}
		}
	}

	updated, errs := b.client.UpdateVariantBarcodes(ctx, variants, newUPC)
	return integrations.UpdateOutcome{
		Updated: updated,
		Failed:  len(variants) - updated,
		Errors:  errs,
	}, nil
}
