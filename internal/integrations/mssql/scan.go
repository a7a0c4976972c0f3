package mssql

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ErrTableMissing marks a table absent from the connected database. Scans
// treat it as skip-and-continue, not failure.
var ErrTableMissing = fmt.Errorf("table not present")

func isMissingTableErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Invalid object name") ||
		strings.Contains(msg, "no such table")
}

// CandidateRow is one detail row selected for auditing. ProductID and
// Description stay nil when the source column holds NULL.
type CandidateRow struct {
	PrimaryKey  int64
	ProductID   *int64
	Description *string
	UPC         string
}

// DateRange bounds a scan by document date. Zero-value strings leave the
// bound open; dates are ISO yyyy-mm-dd.
type DateRange struct {
	From string
	To   string
}

func (r DateRange) empty() bool {
	return r.From == "" && r.To == ""
}

// scanWhere builds the WHERE fragment and args for a candidate scan. Only
// rows carrying a UPC are eligible, so the totals and the chunk plan count
// exactly the rows the audit will judge. The date bound uses the table's
// own column or the joined header's.
func scanWhere(spec TableSpec, r DateRange) (string, []any) {
	parts := []string{
		fmt.Sprintf("d.%s IS NOT NULL", UPCColumn),
		fmt.Sprintf("d.%s <> ''", UPCColumn),
	}
	var args []any

	if !r.empty() {
		var col string
		switch {
		case spec.DateColumn != "":
			col = "d." + spec.DateColumn
		case spec.Header != nil:
			col = "h." + spec.Header.DateColumn
		}
		if col != "" {
			if r.From != "" {
				parts = append(parts, col+" >= ?")
				args = append(args, r.From)
			}
			if r.To != "" {
				parts = append(parts, col+" <= ?")
				args = append(args, r.To)
			}
		}
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

func fromClause(spec TableSpec) string {
	if spec.Header == nil {
		return fmt.Sprintf("%s d", spec.Name)
	}
	return fmt.Sprintf("%s d INNER JOIN %s h ON d.%s = h.%s",
		spec.Name, spec.Header.Table, spec.Header.JoinColumn, spec.Header.JoinColumn)
}

// CountCandidates counts the rows a scan of spec would walk, honoring the
// same filters as ScanWindow.
func (e *Engine) CountCandidates(ctx context.Context, db *gorm.DB, spec TableSpec, dates DateRange) (int, error) {
	where, args := scanWhere(spec, dates)
	q := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", fromClause(spec), where)

	qctx, cancel := e.queryCtx(ctx)
	defer cancel()

	var total int
	if err := db.WithContext(qctx).Raw(q, args...).Scan(&total).Error; err != nil {
		if isMissingTableErr(err) {
			return 0, ErrTableMissing
		}
		return 0, fmt.Errorf("count %s: %w", spec.Name, err)
	}
	return total, nil
}

// ScanWindow reads one chunk of spec ordered by primary key. Row numbering
// is stable across chunks, so consecutive windows tile the table exactly.
func (e *Engine) ScanWindow(ctx context.Context, db *gorm.DB, spec TableSpec, dates DateRange, c Chunk) ([]CandidateRow, error) {
	where, whereArgs := scanWhere(spec, dates)
	q := fmt.Sprintf(`WITH numbered AS (
    SELECT d.%s AS primary_key, d.ProductID AS product_id,
           d.%s AS description, d.%s AS upc,
           ROW_NUMBER() OVER (ORDER BY d.%s) AS row_num
    FROM %s%s
)
SELECT primary_key, product_id, description, upc
FROM numbered
WHERE row_num > ? AND row_num <= ?
ORDER BY row_num`,
		spec.PKColumn, DescColumn, UPCColumn, spec.PKColumn, fromClause(spec), where)

	args := append(whereArgs, c.StartRow-1, c.EndRow)

	qctx, cancel := e.queryCtx(ctx)
	defer cancel()

	rows, err := db.WithContext(qctx).Raw(q, args...).Rows()
	if err != nil {
		if isMissingTableErr(err) {
			return nil, ErrTableMissing
		}
		return nil, fmt.Errorf("scan %s chunk %d: %w", spec.Name, c.Index, err)
	}
	defer rows.Close()

	var out []CandidateRow
	for rows.Next() {
		var r CandidateRow
		var upc *string
		if err := rows.Scan(&r.PrimaryKey, &r.ProductID, &r.Description, &upc); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", spec.Name, err)
		}
		if upc != nil {
			r.UPC = strings.TrimSpace(*upc)
		}
		if r.Description != nil {
			trimmed := strings.TrimSpace(*r.Description)
			r.Description = &trimmed
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan %s chunk %d: %w", spec.Name, c.Index, err)
	}
	return out, nil
}
