package run

import (
	"fmt"
	"os"
	"path/filepath"
)

// Inventory counts the artifacts a reset would delete.
type Inventory struct {
	Path        string
	RawFiles    int
	ExportFiles int
	HasProgress bool
	HasLog      bool
}

// Inspect counts the artifacts of a run.
func Inspect(l Layout) (Inventory, error) {
	if !l.Exists() {
		return Inventory{}, fmt.Errorf("%w: %s", ErrRunNotFound, l.ID)
	}

	inv := Inventory{Path: l.Dir()}

	ids, err := l.Raw().List()
	if err != nil {
		return Inventory{}, err
	}
	inv.RawFiles = len(ids)

	exports, err := filepath.Glob(filepath.Join(l.ExportDir(), "*"))
	if err != nil {
		return Inventory{}, fmt.Errorf("list exports: %w", err)
	}
	inv.ExportFiles = len(exports)

	_, err = os.Stat(l.ProgressPath())
	inv.HasProgress = err == nil
	_, err = os.Stat(l.LogPath())
	inv.HasLog = err == nil

	return inv, nil
}

// Reset deletes the run directory with its progress, log, raw payloads and
// exports. It cannot be undone.
func Reset(l Layout) error {
	if !l.Exists() {
		return fmt.Errorf("%w: %s", ErrRunNotFound, l.ID)
	}
	if err := os.RemoveAll(l.Dir()); err != nil {
		return fmt.Errorf("delete run %s: %w", l.ID, err)
	}
	return nil
}
