package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqliteBatchSize bounds rows per INSERT statement.
const sqliteBatchSize = 200

// SQLiteWriter writes all non-empty tables into one SQLite database.
// Re-exporting replaces the previous contents of each table.
type SQLiteWriter struct {
	Path   string
	Logger zerolog.Logger
}

// NewSQLiteWriter returns a writer for the database at path.
func NewSQLiteWriter(path string, logger zerolog.Logger) *SQLiteWriter {
	return &SQLiteWriter{Path: path, Logger: logger}
}

func (w *SQLiteWriter) Name() string { return "sqlite" }

func (w *SQLiteWriter) open() (*gorm.DB, error) {
	if dir := filepath.Dir(w.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(w.Path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	return db, nil
}

// Write drops, recreates and fills every non-empty table in one transaction.
func (w *SQLiteWriter) Write(ctx context.Context, t *Tables) ([]Artifact, error) {
	db, err := w.open()
	if err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	tables := []struct {
		name  string
		model any
		rows  any
		count int
	}{
		{TableTeams, &Team{}, &t.Teams, len(t.Teams)},
		{TablePlayers, &Player{}, &t.Players, len(t.Players)},
		{TableChampions, &Champion{}, &t.Champions, len(t.Champions)},
		{TableSeries, &Series{}, &t.Series, len(t.Series)},
		{TableGames, &Game{}, &t.Games, len(t.Games)},
		{TableDraftActions, &DraftAction{}, &t.DraftActions, len(t.DraftActions)},
		{TablePlayerGameStats, &PlayerGameStat{}, &t.PlayerGameStats, len(t.PlayerGameStats)},
	}

	var artifacts []Artifact
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, tbl := range tables {
			if tbl.count == 0 {
				w.Logger.Info().Str("table", tbl.name).Msgf("No data for %s", tbl.name)
				continue
			}
			if err := tx.Migrator().DropTable(tbl.model); err != nil {
				return fmt.Errorf("drop %s: %w", tbl.name, err)
			}
			if err := tx.AutoMigrate(tbl.model); err != nil {
				return fmt.Errorf("migrate %s: %w", tbl.name, err)
			}
			if err := tx.CreateInBatches(tbl.rows, sqliteBatchSize).Error; err != nil {
				return fmt.Errorf("insert %s: %w", tbl.name, err)
			}
			artifacts = append(artifacts, Artifact{Table: tbl.name, Path: w.Path, Rows: tbl.count})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, a := range artifacts {
		exportRowsTotal.WithLabelValues(w.Name(), a.Table).Add(float64(a.Rows))
		w.Logger.Info().Str("table", a.Table).Int("rows", a.Rows).Msgf("%s: %d rows (sqlite)", a.Table, a.Rows)
	}
	return artifacts, nil
}
