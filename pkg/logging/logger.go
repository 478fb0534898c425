// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// RunLogTimeFormat is the timestamp layout used in a run's fetch.log.
const RunLogTimeFormat = "2006-01-02 15:04:05"

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	logger := zerolog.New(Writer(cfg)).With().Timestamp().Logger()

	log.Logger = logger

	return logger
}

// Writer returns the console writer described by cfg.
func Writer(cfg Config) io.Writer {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		return zerolog.ConsoleWriter{Out: output, TimeFormat: RunLogTimeFormat}
	}
	return output
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// RunLog is a logger that also appends to a run's human-readable log file.
type RunLog struct {
	zerolog.Logger
	file *os.File
}

// OpenRunLog returns a logger writing to both base's output and the
// append-only file at path. Lines in the file are plain text without color.
// The caller must Close the RunLog to release the file.
func OpenRunLog(base io.Writer, path string) (*RunLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create run log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}

	fileWriter := zerolog.ConsoleWriter{
		Out:        f,
		NoColor:    true,
		TimeFormat: RunLogTimeFormat,
		FormatTimestamp: func(i interface{}) string {
			return fmt.Sprintf("[%s]", formatTimestamp(i))
		},
	}

	if base == nil {
		base = os.Stderr
	}
	writer := zerolog.MultiLevelWriter(base, fileWriter)

	return &RunLog{
		Logger: zerolog.New(writer).With().Timestamp().Logger(),
		file:   f,
	}, nil
}

// Close flushes and closes the run log file.
func (r *RunLog) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	if err := r.file.Sync(); err != nil {
		r.file.Close()
		return fmt.Errorf("sync run log: %w", err)
	}
	return r.file.Close()
}

// formatTimestamp renders zerolog's RFC3339 timestamp field in RunLogTimeFormat.
func formatTimestamp(i interface{}) string {
	s, ok := i.(string)
	if !ok {
		return fmt.Sprint(i)
	}
	ts, err := time.Parse(zerolog.TimeFieldFormat, s)
	if err != nil {
		return s
	}
	return ts.Local().Format(RunLogTimeFormat)
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Query tier selection, request bodies sizes
//   - Pacer waits
//   - Cache hit/miss for Data Dragon documents
//
// Info: Normal operation events
//   - Per-series outcome lines (OK / FAILED)
//   - Checkpoints (rate, ETA)
//   - Export table row counts
//
// Warn: Warning conditions that don't prevent operation
//   - Skipped raw documents during export
//   - Empty export tables
//   - Cache errors (fallback to direct request)
//
// Error: Error conditions requiring attention
//   - Progress store write failures
//   - Malformed schema versions (run aborted)
//   - Configuration errors
//
// Context Fields:
//   - run_id: run directory name
//   - session_id: unique id of one CLI invocation
//   - series_id: work unit being processed
//   - version: schema version reported by the version probe
//   - tier: query tier selected for the data pull
//   - reason: failure reason recorded in progress.json
//   - rate_per_min / eta: checkpoint telemetry
