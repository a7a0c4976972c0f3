package mssql

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// TableMatch aggregates every row of one table carrying the searched UPC.
// Description comes from the lowest-keyed row, so repeated searches are
// deterministic.
type TableMatch struct {
	TableName   string  `json:"table_name"`
	MatchCount  int     `json:"match_count"`
	PrimaryKeys []int64 `json:"primary_keys"`
	Description string  `json:"description"`
}

// SearchUPC looks the barcode up in the catalog and every detail table.
// Tables missing from the database are skipped silently; a store can run a
// trimmed schema.
func (e *Engine) SearchUPC(ctx context.Context, db *gorm.DB, upc string) ([]TableMatch, error) {
	var out []TableMatch

	for _, spec := range SearchTables() {
		q := fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s = ? ORDER BY %s",
			spec.PKColumn, DescColumn, spec.Name, UPCColumn, spec.PKColumn)
		qctx, cancel := e.queryCtx(ctx)
		rows, err := db.WithContext(qctx).Raw(q, upc).Rows()
		if err != nil {
			cancel()
			if isMissingTableErr(err) {
				continue
			}
			return out, fmt.Errorf("search %s: %w", spec.Name, err)
		}

		m := TableMatch{TableName: spec.Name}
		for rows.Next() {
			var pk int64
			var desc *string
			if err := rows.Scan(&pk, &desc); err != nil {
				rows.Close()
				cancel()
				return out, fmt.Errorf("search %s scan: %w", spec.Name, err)
			}
			if m.MatchCount == 0 {
				m.Description = unknownProduct
				if desc != nil {
					m.Description = *desc
				}
			}
			m.PrimaryKeys = append(m.PrimaryKeys, pk)
			m.MatchCount++
		}
		err = rows.Err()
		rows.Close()
		cancel()
		if err != nil {
			return out, fmt.Errorf("search %s: %w", spec.Name, err)
		}

		if m.MatchCount > 0 {
			out = append(out, m)
		}
	}
	return out, nil
}
