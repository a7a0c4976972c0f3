package mssql

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/ruolez/GlobalUPC/internal/progress"
)

// Match pairs an orphaned row with the catalog UPC it should be rewritten
// to. When no catalog row matched, Found is false, ItemsUPC is empty and
// MatchValue carries the no-match sentinel.
type Match struct {
	TableName  string `json:"table_name"`
	PrimaryKey int64  `json:"primary_key"`
	OrphanUPC  string `json:"orphaned_upc"`
	Found      bool   `json:"match_found"`
	ItemsUPC   string `json:"items_tbl_upc"`
	MatchValue string `json:"match_field_value"`
}

// matchBatches drives the shared batch walk. usable extracts the lookup key
// from a record or reports it unusable; lookup resolves one batch of keys to
// catalog UPCs. Catalog rows without a usable UPC never count as matches,
// so a hit always carries a non-empty replacement.
func (e *Engine) matchBatches(
	ctx context.Context,
	orphans []OrphanRecord,
	emit progress.Sink,
	usable func(OrphanRecord) (string, bool),
	lookup func(keys []string) (map[string]string, error),
) ([]Match, error) {
	out := make([]Match, 0, len(orphans))

	for start := 0; start < len(orphans); start += e.matchBatch {
		if err := ctx.Err(); err != nil {
			return out, fmt.Errorf("match cancelled: %w", err)
		}
		end := start + e.matchBatch
		if end > len(orphans) {
			end = len(orphans)
		}
		batch := orphans[start:end]

		keys := make([]string, 0, len(batch))
		seen := make(map[string]struct{}, len(batch))
		for _, rec := range batch {
			k, ok := usable(rec)
			if !ok {
				continue
			}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}

		resolved := map[string]string{}
		if len(keys) > 0 {
			var err error
			resolved, err = lookup(keys)
			if err != nil {
				return out, err
			}
		}

		batchMatched := false
		for _, rec := range batch {
			m := Match{
				TableName:  rec.TableName,
				PrimaryKey: rec.PrimaryKey,
				OrphanUPC:  rec.UPC,
				MatchValue: noMatchSentinel,
			}
			if k, ok := usable(rec); ok {
				m.MatchValue = k
				if upc, hit := resolved[k]; hit {
					m.Found = true
					m.ItemsUPC = upc
					batchMatched = true
				}
			}
			out = append(out, m)
		}
		emit.Emit(progress.Checked(len(out), len(orphans), batchMatched))
	}
	return out, nil
}

// resolveUPC filters one scanned catalog UPC: NULL and blank values carry
// nothing an orphan could be rewritten to.
func resolveUPC(upc *string) (string, bool) {
	if upc == nil {
		return "", false
	}
	v := strings.TrimSpace(*upc)
	return v, v != ""
}

// MatchByProductID resolves orphans whose rows still carry a ProductID
// pointing at a live catalog entry.
func (e *Engine) MatchByProductID(ctx context.Context, db *gorm.DB, orphans []OrphanRecord, emit progress.Sink) ([]Match, error) {
	usable := func(rec OrphanRecord) (string, bool) {
		if rec.ProductID == nil {
			return "", false
		}
		return strconv.FormatInt(*rec.ProductID, 10), true
	}
	lookup := func(keys []string) (map[string]string, error) {
		ids := make([]int64, 0, len(keys))
		for _, k := range keys {
			id, err := strconv.ParseInt(k, 10, 64)
			if err != nil {
				continue
			}
			ids = append(ids, id)
		}
		qctx, cancel := e.queryCtx(ctx)
		defer cancel()

		q := fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s IN ?", CatalogPK, UPCColumn, CatalogTable, CatalogPK)
		rows, err := db.WithContext(qctx).Raw(q, ids).Rows()
		if err != nil {
			return nil, fmt.Errorf("lookup by product id: %w", err)
		}
		defer rows.Close()

		resolved := make(map[string]string, len(ids))
		for rows.Next() {
			var id int64
			var upc *string
			if err := rows.Scan(&id, &upc); err != nil {
				return nil, fmt.Errorf("lookup by product id scan: %w", err)
			}
			if v, ok := resolveUPC(upc); ok {
				resolved[strconv.FormatInt(id, 10)] = v
			}
		}
		return resolved, rows.Err()
	}
	return e.matchBatches(ctx, orphans, emit, usable, lookup)
}

// MatchByDescription resolves orphans by exact catalog description. Records
// whose description is empty or the unknown placeholder cannot match.
func (e *Engine) MatchByDescription(ctx context.Context, db *gorm.DB, orphans []OrphanRecord, emit progress.Sink) ([]Match, error) {
	usable := func(rec OrphanRecord) (string, bool) {
		if rec.Description == "" || rec.Description == unknownSentinel {
			return "", false
		}
		return rec.Description, true
	}
	lookup := func(keys []string) (map[string]string, error) {
		qctx, cancel := e.queryCtx(ctx)
		defer cancel()

		q := fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s IN ?", DescColumn, UPCColumn, CatalogTable, DescColumn)
		rows, err := db.WithContext(qctx).Raw(q, keys).Rows()
		if err != nil {
			return nil, fmt.Errorf("lookup by description: %w", err)
		}
		defer rows.Close()

		resolved := make(map[string]string, len(keys))
		for rows.Next() {
			var desc string
			var upc *string
			if err := rows.Scan(&desc, &upc); err != nil {
				return nil, fmt.Errorf("lookup by description scan: %w", err)
			}
			if v, ok := resolveUPC(upc); ok {
				resolved[desc] = v
			}
		}
		return resolved, rows.Err()
	}
	return e.matchBatches(ctx, orphans, emit, usable, lookup)
}
