package mssql

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/ruolez/GlobalUPC/internal/progress"
)

// UpdateRequest rewrites a single row's UPC.
type UpdateRequest struct {
	TableName  string `json:"table_name"`
	PrimaryKey int64  `json:"primary_key"`
	NewUPC     string `json:"new_upc"`
}

// UpdateResult reports one row's outcome. Rows are updated independently;
// a failed row never rolls back or blocks its neighbours.
type UpdateResult struct {
	TableName  string `json:"table_name"`
	PrimaryKey int64  `json:"primary_key"`
	Success    bool   `json:"success"`
	UpdatedUPC string `json:"updated_upc,omitempty"`
	Error      string `json:"error,omitempty"`
}

// ApplyUpdates executes reqs in sub-batches. Before each sub-batch the
// connection is pinged; if the ping fails the whole sub-batch is marked
// failed and the walk moves on, so a transient outage costs at most one
// sub-batch per occurrence.
func (e *Engine) ApplyUpdates(ctx context.Context, db *gorm.DB, reqs []UpdateRequest, emit progress.Sink) ([]UpdateResult, error) {
	results := make([]UpdateResult, 0, len(reqs))
	totalBatches := TotalChunks(len(reqs), e.updateBatch)
	updated, failed := 0, 0

	for start := 0; start < len(reqs); start += e.updateBatch {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("update cancelled: %w", err)
		}
		end := start + e.updateBatch
		if end > len(reqs) {
			end = len(reqs)
		}
		batch := reqs[start:end]
		batchNo := start/e.updateBatch + 1

		if err := pingDB(ctx, db); err != nil {
			e.log.Error().Err(err).Int("batch", batchNo).Msg("connection lost, failing batch")
			for _, req := range batch {
				results = append(results, UpdateResult{
					TableName:  req.TableName,
					PrimaryKey: req.PrimaryKey,
					Error:      fmt.Sprintf("connection unavailable: %v", err),
				})
				failed++
			}
			emit.Emit(progress.BatchProgress(batchNo, totalBatches, updated, failed, len(results), len(reqs)))
			continue
		}

		for _, req := range batch {
			res := UpdateResult{TableName: req.TableName, PrimaryKey: req.PrimaryKey}
			pk := PKColumnFor(req.TableName)
			q := fmt.Sprintf("UPDATE %s SET %s = ? WHERE %s = ?", req.TableName, UPCColumn, pk)
			qctx, cancel := e.queryCtx(ctx)
			tx := db.WithContext(qctx).Exec(q, req.NewUPC, req.PrimaryKey)
			cancel()
			switch {
			case tx.Error != nil:
				res.Error = tx.Error.Error()
				failed++
			case tx.RowsAffected == 0:
				res.Error = "row not found"
				failed++
			default:
				res.Success = true
				res.UpdatedUPC = req.NewUPC
				updated++
			}
			results = append(results, res)
		}
		emit.Emit(progress.BatchProgress(batchNo, totalBatches, updated, failed, len(results), len(reqs)))
	}

	e.log.Info().Int("updated", updated).Int("failed", failed).Msg("update pass finished")
	return results, nil
}

// UpdateUPCInTable rewrites one UPC on a set of rows. Used by the
// cross-store updater where all rows share the new value. The pk list is
// sliced so no statement exceeds the parameter ceiling.
func (e *Engine) UpdateUPCInTable(ctx context.Context, db *gorm.DB, table string, pks []int64, newUPC string) (int64, error) {
	if len(pks) == 0 {
		return 0, nil
	}
	pk := PKColumnFor(table)
	q := fmt.Sprintf("UPDATE %s SET %s = ? WHERE %s IN ?", table, UPCColumn, pk)

	var affected int64
	for start := 0; start < len(pks); start += e.paramCeiling {
		end := start + e.paramCeiling
		if end > len(pks) {
			end = len(pks)
		}
		qctx, cancel := e.queryCtx(ctx)
		tx := db.WithContext(qctx).Exec(q, newUPC, pks[start:end])
		cancel()
		if tx.Error != nil {
			return affected, fmt.Errorf("update %s: %w", table, tx.Error)
		}
		affected += tx.RowsAffected
	}
	return affected, nil
}

func pingDB(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
