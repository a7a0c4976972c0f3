package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ruolez/GlobalUPC/internal/db"
	"github.com/ruolez/GlobalUPC/internal/integrations"
)

// BackendFor instantiates the registered backend for a store, assembling
// its config from the registry row.
func (r *Runner) BackendFor(store db.Store) (integrations.Backend, error) {
	factory, ok := integrations.Get(store.StoreType)
	if !ok {
		return nil, fmt.Errorf("store %q: unknown store type %q", store.Name, store.StoreType)
	}

	cfg := map[string]any{
		"store_id":   store.ID,
		"store_name": store.Name,
	}
	switch store.StoreType {
	case db.StoreTypeMSSQL:
		c := store.MSSQLConnection
		if c == nil {
			return nil, fmt.Errorf("store %q: no database connection configured", store.Name)
		}
		cfg["connection"] = map[string]any{
			"host":        c.Host,
			"port":        c.Port,
			"database":    c.DatabaseName,
			"username":    c.Username,
			"password":    c.Password,
			"tds_version": c.TDSVersion,
		}
		cfg["engine"] = map[string]any{
			"chunk_size":            r.cfg.Engine.ChunkSize,
			"match_batch":           r.cfg.Engine.MatchBatchSize,
			"update_batch":          r.cfg.Engine.UpdateBatchSize,
			"param_ceiling":         r.cfg.Engine.ParamCeiling,
			"query_timeout_seconds": r.cfg.Engine.QueryTimeoutSeconds,
		}
	case db.StoreTypeShopify:
		c := store.ShopifyConnection
		if c == nil {
			return nil, fmt.Errorf("store %q: no shopify connection configured", store.Name)
		}
		cfg["connection"] = map[string]any{
			"shop_domain":             c.ShopDomain,
			"admin_api_key":           c.AdminAPIKey,
			"api_version":             c.APIVersion,
			"update_sku_with_barcode": c.UpdateSKUWithBarcode,
		}
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("store %q: %w", store.Name, err)
	}
	return factory(r.log, raw)
}

// StoreError records a per-store failure during a fleet operation. One bad
// store never hides the others' results.
type StoreError struct {
	StoreID   uint   `json:"store_id"`
	StoreName string `json:"store_name"`
	Error     string `json:"error"`
}

// SearchFleet queries every active store for a UPC concurrently and
// flattens the matches.
func (r *Runner) SearchFleet(ctx context.Context, stores []db.Store, upc string) ([]integrations.ProductMatch, []StoreError) {
	var (
		mu      sync.Mutex
		matches []integrations.ProductMatch
		errs    []StoreError
		wg      sync.WaitGroup
	)

	for _, store := range stores {
		wg.Add(1)
		go func(store db.Store) {
			defer wg.Done()

			fail := func(err error) {
				mu.Lock()
				errs = append(errs, StoreError{StoreID: store.ID, StoreName: store.Name, Error: err.Error()})
				mu.Unlock()
				r.log.Warn().Err(err).Str("store", store.Name).Msg("fleet search failed")
			}

			backend, err := r.BackendFor(store)
			if err != nil {
				fail(err)
				return
			}
			found, err := backend.SearchUPC(ctx, upc)
			if err != nil {
				fail(err)
				return
			}
			mu.Lock()
			matches = append(matches, found...)
			mu.Unlock()
		}(store)
	}
	wg.Wait()
	return matches, errs
}

// UpdateFleet rewrites a UPC on every store that had matches. Matches are
// grouped per store and applied through that store's backend.
func (r *Runner) UpdateFleet(ctx context.Context, stores []db.Store, matches []integrations.ProductMatch, newUPC string) (integrations.UpdateOutcome, []StoreError) {
	byStore := map[uint][]integrations.ProductMatch{}
	for _, m := range matches {
		byStore[m.StoreID] = append(byStore[m.StoreID], m)
	}

	var total integrations.UpdateOutcome
	var errs []StoreError

	for _, store := range stores {
		group, ok := byStore[store.ID]
		if !ok {
			continue
		}
		backend, err := r.BackendFor(store)
		if err != nil {
			errs = append(errs, StoreError{StoreID: store.ID, StoreName: store.Name, Error: err.Error()})
			total.Failed += len(group)
			continue
		}
		outcome, err := backend.UpdateUPC(ctx, group, newUPC)
		if err != nil {
			errs = append(errs, StoreError{StoreID: store.ID, StoreName: store.Name, Error: err.Error()})
			total.Failed += len(group)
			continue
		}
		total.Updated += outcome.Updated
		total.Failed += outcome.Failed
		total.Errors = append(total.Errors, outcome.Errors...)
	}
	return total, errs
}
