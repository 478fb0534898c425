package run

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/Sternrassler/lol-series-fetcher/pkg/progress"
	"github.com/Sternrassler/lol-series-fetcher/pkg/worklist"
)

// InputExplicit is the input_source of runs created from explicit ids.
const InputExplicit = "explicit_series_ids"

// ErrNoConfig is returned when a run has no run_config.json.
var ErrNoConfig = errors.New("no run config found")

// ErrNoInput is returned when a new run has neither a CSV nor explicit ids.
var ErrNoInput = errors.New("new runs require an input CSV or explicit series ids")

// Config records how a run was created so a resume rebuilds the same worklist.
type Config struct {
	RunID       string    `json:"run_id"`
	CreatedAt   time.Time `json:"created_at"`
	InputSource string    `json:"input_source"`
	SeriesIDs   []string  `json:"series_ids"`
	IDColumn    string    `json:"id_column,omitempty"`
	Limit       *int      `json:"limit"`
	APIEndpoint string    `json:"api_endpoint"`
}

// NewConfig builds the config of a new run. Explicit ids take precedence
// over the CSV path.
func NewConfig(id string, now time.Time, csvPath, column string, ids []string, limit int, endpoint string) (*Config, error) {
	cfg := &Config{
		RunID:       id,
		CreatedAt:   now,
		APIEndpoint: endpoint,
	}
	if limit > 0 {
		cfg.Limit = &limit
	}

	switch {
	case len(ids) > 0:
		if err := worklist.Validate(ids); err != nil {
			return nil, err
		}
		cfg.InputSource = InputExplicit
		cfg.SeriesIDs = ids
	case csvPath != "":
		cfg.InputSource = csvPath
		cfg.IDColumn = column
	default:
		return nil, ErrNoInput
	}
	return cfg, nil
}

// Worklist rebuilds the run's ordered series ids.
func (c *Config) Worklist() ([]string, error) {
	limit := 0
	if c.Limit != nil {
		limit = *c.Limit
	}

	if len(c.SeriesIDs) > 0 {
		if err := worklist.Validate(c.SeriesIDs); err != nil {
			return nil, fmt.Errorf("run config %s: %w", c.RunID, err)
		}
		return worklist.Limit(c.SeriesIDs, limit), nil
	}
	if c.InputSource == "" || c.InputSource == InputExplicit {
		return nil, fmt.Errorf("invalid run config for %s: no input source", c.RunID)
	}

	ids, err := worklist.FromCSV(c.InputSource, c.IDColumn)
	if err != nil {
		return nil, err
	}
	return worklist.Limit(ids, limit), nil
}

// SaveConfig writes run_config.json.
func SaveConfig(l Layout, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode run config: %w", err)
	}
	if err := progress.WriteFileAtomic(l.ConfigPath(), data, 0o644); err != nil {
		return fmt.Errorf("save run config: %w", err)
	}
	return nil
}

// LoadConfig reads run_config.json.
func LoadConfig(l Layout) (*Config, error) {
	data, err := os.ReadFile(l.ConfigPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoConfig, l.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("read run config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode run config %s: %w", l.ConfigPath(), err)
	}
	return &cfg, nil
}
