package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Sternrassler/lol-series-fetcher/pkg/progress"
	"github.com/rs/zerolog"
)

// Artifact is one table written by a Writer.
type Artifact struct {
	Table string
	Path  string
	Rows  int
}

// Writer persists normalized tables.
type Writer interface {
	// Name identifies the output format, e.g. "csv".
	Name() string
	Write(ctx context.Context, t *Tables) ([]Artifact, error)
}

// CSVWriter writes one <table>.csv per non-empty table into Dir.
type CSVWriter struct {
	Dir    string
	Logger zerolog.Logger
}

// NewCSVWriter returns a CSV writer for dir.
func NewCSVWriter(dir string, logger zerolog.Logger) *CSVWriter {
	return &CSVWriter{Dir: dir, Logger: logger}
}

func (w *CSVWriter) Name() string { return "csv" }

// Path returns the file a table is written to.
func (w *CSVWriter) Path(table string) string {
	return filepath.Join(w.Dir, table+".csv")
}

// Write renders each table fully in memory and replaces its file atomically.
func (w *CSVWriter) Write(ctx context.Context, t *Tables) ([]Artifact, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}

	var artifacts []Artifact
	for _, rec := range t.Records() {
		if err := ctx.Err(); err != nil {
			return artifacts, err
		}
		if len(rec.Rows) == 0 {
			w.Logger.Info().Str("table", rec.Name).Msgf("No data for %s", rec.Name)
			continue
		}

		var buf bytes.Buffer
		cw := csv.NewWriter(&buf)
		if err := cw.Write(rec.Columns); err != nil {
			return artifacts, fmt.Errorf("encode %s: %w", rec.Name, err)
		}
		if err := cw.WriteAll(rec.Rows); err != nil {
			return artifacts, fmt.Errorf("encode %s: %w", rec.Name, err)
		}

		path := w.Path(rec.Name)
		if err := progress.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
			return artifacts, fmt.Errorf("write %s: %w", rec.Name, err)
		}
		exportRowsTotal.WithLabelValues(w.Name(), rec.Name).Add(float64(len(rec.Rows)))
		w.Logger.Info().Str("table", rec.Name).Int("rows", len(rec.Rows)).
			Msgf("%s: %d rows", rec.Name, len(rec.Rows))
		artifacts = append(artifacts, Artifact{Table: rec.Name, Path: path, Rows: len(rec.Rows)})
	}
	return artifacts, nil
}
