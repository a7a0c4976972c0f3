package mssql

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/ruolez/GlobalUPC/internal/progress"
)

// DiffFilters narrows the catalog diff. Empty ID slices mean "all"; by
// default discontinued products are left out of the comparison.
type DiffFilters struct {
	CategoryIDs         []int64
	SubCategoryIDs      []int64
	IncludeDiscontinued bool
}

// MissingProduct is a catalog entry present in the source store but absent
// from the target store's catalog.
type MissingProduct struct {
	ProductID       int64  `json:"product_id"`
	UPC             string `json:"upc"`
	Description     string `json:"description"`
	CategoryName    string `json:"category_name"`
	SubCategoryName string `json:"sub_category_name"`
	Discontinued    bool   `json:"discontinued"`
}

func diffWhere(f DiffFilters) (string, []any) {
	var parts []string
	var args []any
	if !f.IncludeDiscontinued {
		parts = append(parts, "i.Discontinued = 0")
	}
	if len(f.CategoryIDs) > 0 {
		parts = append(parts, "i.CategoryID IN ?")
		args = append(args, f.CategoryIDs)
	}
	if len(f.SubCategoryIDs) > 0 {
		parts = append(parts, "i.SubCategoryID IN ?")
		args = append(args, f.SubCategoryIDs)
	}
	if len(parts) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

// DiffCatalogs walks source's catalog in chunks and reports products whose
// UPC does not exist in target's catalog. Rows with no UPC cannot be
// compared and are skipped.
func (e *Engine) DiffCatalogs(ctx context.Context, source, target *gorm.DB, f DiffFilters, emit progress.Sink) ([]MissingProduct, error) {
	where, args := diffWhere(f)

	var total int
	countQ := fmt.Sprintf("SELECT COUNT(*) FROM %s i%s", CatalogTable, where)
	countCtx, cancelCount := e.queryCtx(ctx)
	err := source.WithContext(countCtx).Raw(countQ, args...).Scan(&total).Error
	cancelCount()
	if err != nil {
		return nil, fmt.Errorf("count catalog: %w", err)
	}

	chunks := PlanChunks(total, e.chunkSize)
	emit.Emit(progress.Starting(total, len(chunks)))

	var missing []MissingProduct
	checked := 0

	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			return missing, fmt.Errorf("diff cancelled: %w", err)
		}

		q := fmt.Sprintf(`WITH numbered AS (
    SELECT i.%s AS product_id, i.%s AS upc, i.%s AS description,
           c.CategoryName AS category_name, s.SubCategoryName AS sub_category_name,
           i.Discontinued AS discontinued,
           ROW_NUMBER() OVER (ORDER BY i.%s) AS row_num
    FROM %s i
    LEFT JOIN Categories_tbl c ON i.CategoryID = c.CategoryID
    LEFT JOIN SubCategories_tbl s ON i.SubCategoryID = s.SubCategoryID%s
)
SELECT product_id, upc, description, category_name, sub_category_name, discontinued
FROM numbered
WHERE row_num > ? AND row_num <= ?
ORDER BY row_num`,
			CatalogPK, UPCColumn, DescColumn, CatalogPK, CatalogTable, where)

		chunkArgs := append(append([]any{}, args...), c.StartRow-1, c.EndRow)
		qctx, cancel := e.queryCtx(ctx)
		rows, err := source.WithContext(qctx).Raw(q, chunkArgs...).Rows()
		if err != nil {
			cancel()
			return missing, fmt.Errorf("diff chunk %d: %w", c.Index, err)
		}

		var batch []MissingProduct
		var upcs []string
		for rows.Next() {
			var p MissingProduct
			var upc, desc, cat, sub *string
			if err := rows.Scan(&p.ProductID, &upc, &desc, &cat, &sub, &p.Discontinued); err != nil {
				rows.Close()
				cancel()
				return missing, fmt.Errorf("diff scan: %w", err)
			}
			if upc == nil || strings.TrimSpace(*upc) == "" {
				continue
			}
			p.UPC = strings.TrimSpace(*upc)
			if desc != nil {
				p.Description = *desc
			}
			if cat != nil {
				p.CategoryName = *cat
			}
			if sub != nil {
				p.SubCategoryName = *sub
			}
			batch = append(batch, p)
			upcs = append(upcs, p.UPC)
		}
		err = rows.Err()
		rows.Close()
		cancel()
		if err != nil {
			return missing, fmt.Errorf("diff chunk %d: %w", c.Index, err)
		}

		found, err := e.ProbeExistence(ctx, target, upcs)
		if err != nil {
			return missing, err
		}

		inChunk := 0
		for _, p := range batch {
			if _, ok := found[p.UPC]; ok {
				continue
			}
			missing = append(missing, p)
			inChunk++
		}
		checked += c.EndRow - c.StartRow + 1

		emit.Emit(progress.DiffChunkProgress(c.Index, len(chunks), checked, total, inChunk, len(missing)))
	}

	e.log.Info().Int("missing", len(missing)).Int("checked", total).Msg("catalog diff finished")
	return missing, nil
}
