// Package run manages run directories under the output root.
//
// A run directory holds everything one fetch campaign produces:
//
//	<output>/<run_id>/
//	├── run_config.json
//	├── progress.json
//	├── fetch.log
//	├── raw/series_<id>.json
//	└── csv/
package run

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Sternrassler/lol-series-fetcher/pkg/progress"
)

// Sentinel errors for run resolution.
var (
	// ErrRunNotFound is returned when a named run directory does not exist.
	ErrRunNotFound = errors.New("run not found")

	// ErrNoRuns is returned when "latest" is requested and no run exists.
	ErrNoRuns = errors.New("no runs found")

	// ErrRunRequired is returned when a command needs an existing run but none was named.
	ErrRunRequired = errors.New("run name required (use --run <name> or --run latest)")
)

// Latest selects the most recently created run.
const Latest = "latest"

// IDFormat is the layout of generated run ids.
const IDFormat = "20060102_150405"

// File and directory names inside a run directory.
const (
	ConfigFileName = "run_config.json"
	LogFileName    = "fetch.log"
	RawDirName     = "raw"
	ExportDirName  = "csv"
	SQLiteFileName = "series.db"
)

// NewID returns a timestamp run id such as "20240601_120000".
func NewID(now time.Time) string {
	return now.Format(IDFormat)
}

// Layout resolves the paths of one run.
type Layout struct {
	// Root is the output directory holding all runs.
	Root string

	// ID is the run directory name.
	ID string
}

// NewLayout returns the layout of run id under root.
func NewLayout(root, id string) Layout {
	return Layout{Root: root, ID: id}
}

func (l Layout) Dir() string          { return filepath.Join(l.Root, l.ID) }
func (l Layout) ConfigPath() string   { return filepath.Join(l.Dir(), ConfigFileName) }
func (l Layout) ProgressPath() string { return filepath.Join(l.Dir(), progress.FileName) }
func (l Layout) LogPath() string      { return filepath.Join(l.Dir(), LogFileName) }
func (l Layout) RawDir() string       { return filepath.Join(l.Dir(), RawDirName) }
func (l Layout) ExportDir() string    { return filepath.Join(l.Dir(), ExportDirName) }
func (l Layout) SQLitePath() string   { return filepath.Join(l.ExportDir(), SQLiteFileName) }

// Exists reports whether the run directory exists.
func (l Layout) Exists() bool {
	info, err := os.Stat(l.Dir())
	return err == nil && info.IsDir()
}

// EnsureDirs creates the run, raw and export directories.
func (l Layout) EnsureDirs() error {
	for _, dir := range []string{l.Dir(), l.RawDir(), l.ExportDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// Store returns the run's progress store.
func (l Layout) Store() *progress.Store {
	return progress.NewStore(l.ProgressPath())
}

// Raw returns the run's raw payload store.
func (l Layout) Raw() *RawStore {
	return NewRawStore(l.RawDir())
}

// Resolve maps a --run value for the fetch command. An empty name creates a
// new timestamped run, "latest" resumes the newest run, and any other name
// resumes that run if it exists or creates it otherwise.
func Resolve(root, name string, now time.Time) (layout Layout, isNew bool, err error) {
	switch name {
	case "":
		return NewLayout(root, NewID(now)), true, nil
	case Latest:
		id, err := LatestID(root)
		if err != nil {
			return Layout{}, false, err
		}
		return NewLayout(root, id), false, nil
	default:
		l := NewLayout(root, name)
		return l, !l.Exists(), nil
	}
}

// Open maps a --run value for commands that need an existing run.
func Open(root, name string) (Layout, error) {
	switch name {
	case "":
		return Layout{}, ErrRunRequired
	case Latest:
		id, err := LatestID(root)
		if err != nil {
			return Layout{}, err
		}
		return NewLayout(root, id), nil
	default:
		l := NewLayout(root, name)
		if !l.Exists() {
			return Layout{}, fmt.Errorf("%w: %s", ErrRunNotFound, name)
		}
		return l, nil
	}
}
