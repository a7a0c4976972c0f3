package mssql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ruolez/GlobalUPC/internal/integrations"
)

const BackendName = "mssql"

func init() {
	integrations.Register(BackendName, NewBackend)
}

type backendConfig struct {
	StoreID    uint    `json:"store_id"`
	StoreName  string  `json:"store_name"`
	Connection Config  `json:"connection"`
	Engine     Options `json:"engine"`
}

// Backend exposes one POS database through the common store interface.
type Backend struct {
	log    zerolog.Logger
	cfg    backendConfig
	db     *gorm.DB
	engine *Engine
}

func NewBackend(log zerolog.Logger, raw json.RawMessage) (integrations.Backend, error) {
	var cfg backendConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("mssql config: %w", err)
	}
	if cfg.Connection.Host == "" || cfg.Connection.Database == "" {
		return nil, fmt.Errorf("mssql config: host and database are required")
	}
	db, err := Open(cfg.Connection)
	if err != nil {
		return nil, err
	}
	return &Backend{
		log:    log.With().Str("integration", BackendName).Str("store", cfg.StoreName).Logger(),
		cfg:    cfg,
		db:     db,
		engine: NewEngine(log, cfg.Engine),
	}, nil
}

func (b *Backend) Name() string { return BackendName }

// DB exposes the underlying handle for engine-level operations that span
// two stores.
func (b *Backend) DB() *gorm.DB { return b.db }

func (b *Backend) Engine() *Engine { return b.engine }

func (b *Backend) Test(ctx context.Context) (string, error) {
	var version string
	if err := b.db.WithContext(ctx).Raw("SELECT @@VERSION").Scan(&version).Error; err != nil {
		return "", fmt.Errorf("test %s: %w", b.cfg.StoreName, err)
	}
	return version, nil
}

func (b *Backend) SearchUPC(ctx context.Context, upc string) ([]integrations.ProductMatch, error) {
	tables, err := b.engine.SearchUPC(ctx, b.db, upc)
	if err != nil {
		return nil, err
	}
	out := make([]integrations.ProductMatch, 0, len(tables))
	for _, t := range tables {
		out = append(out, integrations.ProductMatch{
			StoreID:     b.cfg.StoreID,
			StoreName:   b.cfg.StoreName,
			ProductName: t.Description,
			Barcode:     upc,
			TableName:   t.TableName,
			MatchCount:  t.MatchCount,
			PrimaryKeys: t.PrimaryKeys,
		})
	}
	return out, nil
}

func (b *Backend) UpdateUPC(ctx context.Context, matches []integrations.ProductMatch, newUPC string) (integrations.UpdateOutcome, error) {
	var outcome integrations.UpdateOutcome
	for _, m := range matches {
		if m.TableName == "" || len(m.PrimaryKeys) == 0 {
			continue
		}
		affected, err := b.engine.UpdateUPCInTable(ctx, b.db, m.TableName, m.PrimaryKeys, newUPC)
		if err != nil {
			outcome.Failed += len(m.PrimaryKeys)
			outcome.Errors = append(outcome.Errors, err.Error())
			b.log.Error().Err(err).Str("table", m.TableName).Msg("bulk update failed")
			continue
		}
		outcome.Updated += int(affected)
	}
	return outcome, nil
}

func (b *Backend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
