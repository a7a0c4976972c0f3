package mssql

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/ruolez/GlobalUPC/internal/progress"
)

// OrphanRecord is one detail row whose UPC has no catalog entry in the
// audited target database.
type OrphanRecord struct {
	TableName   string `json:"table_name"`
	PrimaryKey  int64  `json:"primary_key"`
	UPC         string `json:"upc"`
	ProductID   *int64 `json:"product_id"`
	Description string `json:"description"`
}

// AuditOptions selects the scan surface. CrossSource restricts the walk to
// tables whose documents move between stores; Dates bounds rows by their
// document date.
type AuditOptions struct {
	CrossSource bool
	Dates       DateRange
}

// AuditOrphans walks every selected detail table in source and probes each
// chunk's UPCs against target's catalog. source and target may be the same
// handle for a single store audit. Tables missing from source are skipped,
// never fatal. The scan stops early only on context cancellation.
func (e *Engine) AuditOrphans(ctx context.Context, source, target *gorm.DB, opts AuditOptions, emit progress.Sink) ([]OrphanRecord, error) {
	var orphans []OrphanRecord

	for _, spec := range DetailTables(opts.CrossSource) {
		emit.Emit(progress.CheckingTable(spec.Name))

		total, err := e.CountCandidates(ctx, source, spec, opts.Dates)
		if err != nil {
			if errors.Is(err, ErrTableMissing) {
				e.log.Warn().Str("table", spec.Name).Msg("table missing, skipping")
				emit.Emit(progress.TableSkipped(spec.Name))
				continue
			}
			return orphans, err
		}

		chunks := PlanChunks(total, e.chunkSize)
		tableOrphans := 0
		checked := 0

		for _, c := range chunks {
			if err := ctx.Err(); err != nil {
				return orphans, fmt.Errorf("audit cancelled: %w", err)
			}

			rows, err := e.ScanWindow(ctx, source, spec, opts.Dates, c)
			if err != nil {
				if errors.Is(err, ErrTableMissing) {
					emit.Emit(progress.TableSkipped(spec.Name))
					break
				}
				return orphans, err
			}

			upcs := make([]string, 0, len(rows))
			for _, r := range rows {
				if r.UPC != "" {
					upcs = append(upcs, r.UPC)
				}
			}
			found, err := e.ProbeExistence(ctx, target, upcs)
			if err != nil {
				return orphans, err
			}

			inChunk := 0
			for _, r := range rows {
				if r.UPC == "" {
					continue
				}
				if _, ok := found[r.UPC]; ok {
					continue
				}
				desc := unknownSentinel
				if r.Description != nil && *r.Description != "" {
					desc = *r.Description
				}
				orphans = append(orphans, OrphanRecord{
					TableName:   spec.Name,
					PrimaryKey:  r.PrimaryKey,
					UPC:         r.UPC,
					ProductID:   r.ProductID,
					Description: desc,
				})
				inChunk++
			}
			tableOrphans += inChunk
			checked += len(rows)

			emit.Emit(progress.ChunkProgress(spec.Name, c.Index, len(chunks), checked, total, inChunk, tableOrphans))
		}

		emit.Emit(progress.TableComplete(spec.Name, tableOrphans))
		e.log.Info().Str("table", spec.Name).Int("orphans", tableOrphans).Int("rows", checked).Msg("table audited")
	}

	return orphans, nil
}
