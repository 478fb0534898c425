package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// FileName is the progress document inside a run directory.
const FileName = "progress.json"

// Store loads and saves a Record at a fixed path.
type Store struct {
	path string
	now  func() time.Time
}

// NewStore creates a store for the progress document at path.
func NewStore(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// Path returns the progress document path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the record. A missing file yields an empty record.
func (s *Store) Load() (*Record, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read progress: %w", err)
	}

	rec := New()
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("decode progress %s: %w", s.path, err)
	}
	rec.normalize()
	return rec, nil
}

// Save stamps LastUpdated and replaces the document atomically.
func (s *Store) Save(rec *Record) error {
	now := s.now()
	rec.LastUpdated = &now

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}
	if err := WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

// WriteFileAtomic writes data to a temp file next to path, syncs it and
// renames it over path.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
