package mssql

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ProbeExistence reports which of the given UPCs exist in the target
// catalog. The probe list is sliced so no single query exceeds the
// parameter ceiling; results across slices are unioned, so callers see the
// same set regardless of ceiling.
func (e *Engine) ProbeExistence(ctx context.Context, db *gorm.DB, upcs []string) (map[string]struct{}, error) {
	found := make(map[string]struct{})
	if len(upcs) == 0 {
		return found, nil
	}

	seen := make(map[string]struct{}, len(upcs))
	distinct := make([]string, 0, len(upcs))
	for _, u := range upcs {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		distinct = append(distinct, u)
	}

	for start := 0; start < len(distinct); start += e.paramCeiling {
		end := start + e.paramCeiling
		if end > len(distinct) {
			end = len(distinct)
		}
		slice := distinct[start:end]

		qctx, cancel := e.queryCtx(ctx)
		q := fmt.Sprintf("SELECT DISTINCT %s FROM %s WHERE %s IN ?", UPCColumn, CatalogTable, UPCColumn)
		rows, err := db.WithContext(qctx).Raw(q, slice).Rows()
		if err != nil {
			cancel()
			return nil, fmt.Errorf("probe catalog: %w", err)
		}
		for rows.Next() {
			var upc string
			if err := rows.Scan(&upc); err != nil {
				rows.Close()
				cancel()
				return nil, fmt.Errorf("probe catalog scan: %w", err)
			}
			found[strings.TrimSpace(upc)] = struct{}{}
		}
		err = rows.Err()
		rows.Close()
		cancel()
		if err != nil {
			return nil, fmt.Errorf("probe catalog: %w", err)
		}
	}
	return found, nil
}
