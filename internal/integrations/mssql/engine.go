package mssql

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	conf "github.com/ruolez/GlobalUPC/internal/config"
)

// Engine runs audits, matches, updates and diffs over already-open database
// handles. All batch sizes are tunable; zero values fall back to defaults.
type Engine struct {
	log zerolog.Logger

	chunkSize    int
	matchBatch   int
	updateBatch  int
	paramCeiling int
	queryTimeout time.Duration
}

type Options struct {
	ChunkSize           int `json:"chunk_size"`
	MatchBatch          int `json:"match_batch"`
	UpdateBatch         int `json:"update_batch"`
	ParamCeiling        int `json:"param_ceiling"`
	QueryTimeoutSeconds int `json:"query_timeout_seconds"`
}

func NewEngine(log zerolog.Logger, opts Options) *Engine {
	e := &Engine{
		log:          log.With().Str("component", "mssql-engine").Logger(),
		chunkSize:    opts.ChunkSize,
		matchBatch:   opts.MatchBatch,
		updateBatch:  opts.UpdateBatch,
		paramCeiling: opts.ParamCeiling,
		queryTimeout: time.Duration(opts.QueryTimeoutSeconds) * time.Second,
	}
	if e.chunkSize <= 0 {
		e.chunkSize = conf.DefaultChunkSize
	}
	if e.matchBatch <= 0 {
		e.matchBatch = conf.DefaultMatchBatchSize
	}
	if e.updateBatch <= 0 {
		e.updateBatch = conf.DefaultUpdateBatchSize
	}
	if e.paramCeiling <= 0 {
		e.paramCeiling = conf.DefaultParamCeiling
	}
	if e.queryTimeout <= 0 {
		e.queryTimeout = conf.DefaultQueryTimeout * time.Second
	}
	return e
}

// queryCtx bounds a single statement so one stuck query cannot hang a whole
// scan. Callers must hold the cancel until result rows are fully consumed.
func (e *Engine) queryCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.queryTimeout)
}

// EngineFromConfig builds an Engine from the persisted tuning section.
func EngineFromConfig(log zerolog.Logger, ec conf.EngineConfig) *Engine {
	return NewEngine(log, Options{
		ChunkSize:           ec.ChunkSize,
		MatchBatch:          ec.MatchBatchSize,
		UpdateBatch:         ec.UpdateBatchSize,
		ParamCeiling:        ec.ParamCeiling,
		QueryTimeoutSeconds: ec.QueryTimeoutSeconds,
	})
}
