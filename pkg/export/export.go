// Package export flattens stored series-state responses into relational
// tables and writes them as CSV files or a SQLite database.
package export

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for exports.
var (
	exportDocumentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "export_documents_total",
		Help: "Raw documents read by export, by status",
	}, []string{"status"})

	exportRowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "export_rows_total",
		Help: "Rows written by export, by format and table",
	}, []string{"format", "table"})
)

// Source lists and reads stored documents.
type Source interface {
	List() ([]string, error)
	Read(seriesID string) ([]byte, error)
}

// LoadDocuments reads every document of src in id order.
func LoadDocuments(src Source) ([]Document, error) {
	ids, err := src.List()
	if err != nil {
		return nil, err
	}
	docs := make([]Document, 0, len(ids))
	for _, id := range ids {
		body, err := src.Read(id)
		if err != nil {
			return nil, err
		}
		docs = append(docs, Document{SeriesID: id, Body: body})
	}
	return docs, nil
}

// Result summarizes an export.
type Result struct {
	Documents int
	Skipped   []Skip
	Counts    map[string]int
	Artifacts []Artifact

	// Empty is set when documents were given but no table received a row.
	Empty bool
}

// Export flattens docs and hands the tables to every writer in turn.
// Zero documents is not an error: nothing is written and a warning is logged.
func Export(ctx context.Context, docs []Document, writers []Writer, logger zerolog.Logger) (*Result, error) {
	result := &Result{Documents: len(docs), Counts: map[string]int{}}
	if len(docs) == 0 {
		logger.Warn().Msg("No data to export!")
		return result, nil
	}

	tables := Flatten(docs)
	result.Skipped = tables.Skipped
	result.Counts = tables.Counts()

	for _, s := range tables.Skipped {
		exportDocumentsTotal.WithLabelValues("skipped").Inc()
		logger.Warn().Str("series_id", s.SeriesID).Str("reason", s.Reason).Msg("document skipped")
	}
	exportDocumentsTotal.WithLabelValues("exported").Add(float64(len(docs) - len(tables.Skipped)))

	logger.Info().Int("documents", len(docs)).Int("skipped", len(tables.Skipped)).
		Msgf("Processing %d series files...", len(docs))
	if tables.Empty() {
		result.Empty = true
		logger.Warn().Int("skipped", len(tables.Skipped)).Msg("All documents were skipped; tables contain headers only")
	}

	for _, w := range writers {
		artifacts, err := w.Write(ctx, tables)
		result.Artifacts = append(result.Artifacts, artifacts...)
		if err != nil {
			return result, fmt.Errorf("export %s: %w", w.Name(), err)
		}
	}
	return result, nil
}
