// internal/integrations/shopify/types.go
package shopify

// graphQLRequest is the envelope for Admin API GraphQL calls.
type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type variantNode struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	SKU     string `json:"sku"`
	Barcode string `json:"barcode"`
	Price   string `json:"price"`
	Product struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"product"`
}

type variantSearchResponse struct {
	Data struct {
		ProductVariants struct {
			Edges []struct {
				Node variantNode `json:"node"`
			} `json:"edges"`
		} `json:"productVariants"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type bulkUpdateResponse struct {
	Data struct {
		ProductVariantsBulkUpdate struct {
			ProductVariants []struct {
				ID      string `json:"id"`
				Barcode string `json:"barcode"`
			} `json:"productVariants"`
			UserErrors []struct {
				Field   []string `json:"field"`
				Message string   `json:"message"`
			} `json:"userErrors"`
		} `json:"productVariantsBulkUpdate"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type shopResponse struct {
	Shop struct {
		Name   string `json:"name"`
		Domain string `json:"domain"`
	} `json:"shop"`
}

type restVariantUpdate struct {
	Variant struct {
		ID      int64  `json:"id"`
		Barcode string `json:"barcode"`
		SKU     string `json:"sku,omitempty"`
	} `json:"variant"`
}
