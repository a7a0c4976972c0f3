// internal/config/config.go
package conf

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Engine tuning. Every knob has a working default so a freshly written
// config.json runs out of the box against production-sized tables.
type EngineConfig struct {
	ChunkSize           int `json:"chunk_size"`            // rows per audit/diff window
	MatchBatchSize      int `json:"match_batch_size"`      // orphan records per reconciliation lookup
	UpdateBatchSize     int `json:"update_batch_size"`     // rows per corrective update sub-batch
	ParamCeiling        int `json:"param_ceiling"`         // max bound params per IN() query (TDS hard limit is 2100)
	QueryTimeoutSeconds int `json:"query_timeout_seconds"` // per-statement timeout, must cover one chunk
}

// Stream pacing for progress consumers.
type StreamConfig struct {
	PollMillis       int `json:"poll_millis"`       // relay poll interval when idle
	HeartbeatSeconds int `json:"heartbeat_seconds"` // keep-alive after this long without progress
}

type Config struct {
	LogConsole bool         `json:"log_console"`
	Engine     EngineConfig `json:"engine"`
	Stream     StreamConfig `json:"stream"`
}

const (
	DefaultChunkSize       = 5000
	DefaultMatchBatchSize  = 500
	DefaultUpdateBatchSize = 20
	DefaultParamCeiling    = 2000
	DefaultQueryTimeout    = 60
	DefaultPollMillis      = 100
	DefaultHeartbeatSec    = 15
)

func defaults() *Config {
	return &Config{
		LogConsole: true,
		Engine: EngineConfig{
			ChunkSize:           DefaultChunkSize,
			MatchBatchSize:      DefaultMatchBatchSize,
			UpdateBatchSize:     DefaultUpdateBatchSize,
			ParamCeiling:        DefaultParamCeiling,
			QueryTimeoutSeconds: DefaultQueryTimeout,
		},
		Stream: StreamConfig{
			PollMillis:       DefaultPollMillis,
			HeartbeatSeconds: DefaultHeartbeatSec,
		},
	}
}

func LoadOrCreate(path string) (*Config, bool, error) {
	// make sure the directory exists
	_ = os.MkdirAll(filepath.Dir(path), 0o755)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := defaults()
			if err := Save(path, cfg); err != nil {
				return nil, false, fmt.Errorf("writing default config: %w", err)
			}
			return cfg, true, nil
		}
		return nil, false, fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()

	var cfg Config
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, false, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, false, nil
}

func Save(path string, cfg *Config) error {
	_ = os.MkdirAll(filepath.Dir(path), 0o755)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}

// applyDefaults fills zero values so a hand-edited config with missing keys
// still gets sane tuning.
func (c *Config) applyDefaults() {
	d := defaults()
	if c.Engine.ChunkSize <= 0 {
		c.Engine.ChunkSize = d.Engine.ChunkSize
	}
	if c.Engine.MatchBatchSize <= 0 {
		c.Engine.MatchBatchSize = d.Engine.MatchBatchSize
	}
	if c.Engine.UpdateBatchSize <= 0 {
		c.Engine.UpdateBatchSize = d.Engine.UpdateBatchSize
	}
	if c.Engine.ParamCeiling <= 0 {
		c.Engine.ParamCeiling = d.Engine.ParamCeiling
	}
	if c.Engine.QueryTimeoutSeconds <= 0 {
		c.Engine.QueryTimeoutSeconds = d.Engine.QueryTimeoutSeconds
	}
	if c.Stream.PollMillis <= 0 {
		c.Stream.PollMillis = d.Stream.PollMillis
	}
	if c.Stream.HeartbeatSeconds <= 0 {
		c.Stream.HeartbeatSeconds = d.Stream.HeartbeatSeconds
	}
}

func (s StreamConfig) PollInterval() time.Duration {
	return time.Duration(s.PollMillis) * time.Millisecond
}

func (s StreamConfig) HeartbeatInterval() time.Duration {
	return time.Duration(s.HeartbeatSeconds) * time.Second
}

func (e EngineConfig) QueryTimeout() time.Duration {
	return time.Duration(e.QueryTimeoutSeconds) * time.Second
}
