// internal/integrations/shopify/shopify.go
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultAPIVersion = "2025-01"

type Config struct {
	ShopDomain           string `json:"shop_domain"`
	AdminAPIKey          string `json:"admin_api_key"`
	APIVersion           string `json:"api_version"`
	UpdateSKUWithBarcode bool   `json:"update_sku_with_barcode"`
}

// Client talks to one Shopify storefront's Admin API.
type Client struct {
	log  zerolog.Logger
	cfg  Config
	http *http.Client

	// baseURL overrides the shop host, used by tests
	baseURL string
}

func NewClient(log zerolog.Logger, cfg Config) *Client {
	cfg.ShopDomain = NormalizeDomain(cfg.ShopDomain)
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultAPIVersion
	}
	return &Client{
		log:  log.With().Str("shop", cfg.ShopDomain).Logger(),
		cfg:  cfg,
		http: &http.Client{Timeout: 15 * time.Second},
	}
}

// NormalizeDomain accepts "store", "store.myshopify.com" or a full URL and
// returns the bare myshopify host.
func NormalizeDomain(domain string) string {
	d := strings.TrimSpace(strings.ToLower(domain))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimSuffix(d, "/")
	if d == "" {
		return d
	}
	if !strings.Contains(d, ".") {
		d += ".myshopify.com"
	}
	return d
}

func (c *Client) endpoint(path string) string {
	base := c.baseURL
	if base == "" {
		base = "https://" + c.cfg.ShopDomain
	}
	return fmt.Sprintf("%s/admin/api/%s/%s", base, c.cfg.APIVersion, path)
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var payload io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		payload = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), payload)
	if err != nil {
		return err
	}
	req.Header.Set("X-Shopify-Access-Token", c.cfg.AdminAPIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("shopify %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("shopify read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("shopify %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("shopify decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) graphql(ctx context.Context, query string, vars map[string]any, out any) error {
	return c.do(ctx, http.MethodPost, "graphql.json", graphQLRequest{Query: query, Variables: vars}, out)
}

// TestConnection fetches the shop profile to verify domain and token.
func (c *Client) TestConnection(ctx context.Context) (string, error) {
	var shop shopResponse
	if err := c.do(ctx, http.MethodGet, "shop.json", nil, &shop); err != nil {
		return "", err
	}
	return shop.Shop.Name, nil
}

// SearchByBarcode finds every variant carrying the barcode. Shopify treats
// the barcode query as a normal search term, so exact equality is enforced
// on the response.
func (c *Client) SearchByBarcode(ctx context.Context, barcode string) ([]variantNode, error) {
	const query = `query($q: String!) {
  productVariants(first: 100, query: $q) {
    edges {
      node {
        id
        title
        sku
        barcode
        price
        product { id title }
      }
    }
  }
}`
	var resp variantSearchResponse
	vars := map[string]any{"q": fmt.Sprintf("barcode:%s", barcode)}
	if err := c.graphql(ctx, query, vars, &resp); err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("shopify search: %s", resp.Errors[0].Message)
	}

	var out []variantNode
	for _, edge := range resp.Data.ProductVariants.Edges {
		if edge.Node.Barcode == barcode {
			out = append(out, edge.Node)
		}
	}
	return out, nil
}

// UpdateVariantBarcodes rewrites the barcode on the given variants, grouped
// per product for the bulk mutation. When the client is configured to keep
// SKUs in sync, each variant is additionally patched over REST since the
// bulk mutation does not accept SKU fields.
func (c *Client) UpdateVariantBarcodes(ctx context.Context, variants []variantNode, newBarcode string) (int, []string) {
	const mutation = `mutation($productId: ID!, $variants: [ProductVariantsBulkInput!]!) {
  productVariantsBulkUpdate(productId: $productId, variants: $variants) {
    productVariants { id barcode }
    userErrors { field message }
  }
}`

	byProduct := map[string][]variantNode{}
	for _, v := range variants {
		byProduct[v.Product.ID] = append(byProduct[v.Product.ID], v)
	}

	updated := 0
	var errs []string
	for productID, group := range byProduct {
		inputs := make([]map[string]any, 0, len(group))
		for _, v := range group {
			inputs = append(inputs, map[string]any{"id": v.ID, "barcode": newBarcode})
		}

		var resp bulkUpdateResponse
		vars := map[string]any{"productId": productID, "variants": inputs}
		if err := c.graphql(ctx, mutation, vars, &resp); err != nil {
			errs = append(errs, err.Error())
			continue
		}
		if len(resp.Errors) > 0 {
			errs = append(errs, resp.Errors[0].Message)
			continue
		}
		for _, ue := range resp.Data.ProductVariantsBulkUpdate.UserErrors {
			errs = append(errs, ue.Message)
		}
		updated += len(resp.Data.ProductVariantsBulkUpdate.ProductVariants)
	}

	if c.cfg.UpdateSKUWithBarcode {
		for _, v := range variants {
			if err := c.updateSKU(ctx, v.ID, newBarcode); err != nil {
				errs = append(errs, err.Error())
			}
		}
	}
	return updated, errs
}

// updateSKU patches a single variant over REST, setting both fields so the
// SKU follows the barcode.
func (c *Client) updateSKU(ctx context.Context, variantGID, barcode string) error {
	id, err := numericID(variantGID)
	if err != nil {
		return err
	}
	var body restVariantUpdate
	body.Variant.ID = id
	body.Variant.Barcode = barcode
	body.Variant.SKU = barcode
	return c.do(ctx, http.MethodPut, fmt.Sprintf("variants/%d.json", id), body, nil)
}

// numericID extracts the trailing numeric id from a gid://shopify/... GID.
func numericID(gid string) (int64, error) {
	idx := strings.LastIndex(gid, "/")
	if idx < 0 || idx == len(gid)-1 {
		return 0, fmt.Errorf("malformed variant gid %q", gid)
	}
	id, err := strconv.ParseInt(gid[idx+1:], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed variant gid %q: %w", gid, err)
	}
	return id, nil
}
