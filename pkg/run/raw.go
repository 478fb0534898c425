package run

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Sternrassler/lol-series-fetcher/pkg/progress"
	"github.com/Sternrassler/lol-series-fetcher/pkg/worklist"
)

const (
	rawPrefix = "series_"
	rawSuffix = ".json"
)

// ErrInvalidSeriesID is returned for ids that cannot name a file.
var ErrInvalidSeriesID = worklist.ErrInvalidID

// RawStore holds verbatim series responses, one file per series.
type RawStore struct {
	dir string
}

// NewRawStore returns a store rooted at dir.
func NewRawStore(dir string) *RawStore {
	return &RawStore{dir: dir}
}

// Dir returns the store directory.
func (s *RawStore) Dir() string {
	return s.dir
}

// Path returns the payload path for a series.
func (s *RawStore) Path(seriesID string) string {
	return filepath.Join(s.dir, rawPrefix+seriesID+rawSuffix)
}

// Write replaces the payload of a series atomically and returns its path.
func (s *RawStore) Write(seriesID string, data []byte) (string, error) {
	if err := worklist.ValidateID(seriesID); err != nil {
		return "", err
	}
	path := s.Path(seriesID)
	if err := progress.WriteFileAtomic(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write raw payload %s: %w", seriesID, err)
	}
	return path, nil
}

// Read returns the payload of a series.
func (s *RawStore) Read(seriesID string) ([]byte, error) {
	if err := worklist.ValidateID(seriesID); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(seriesID))
	if err != nil {
		return nil, fmt.Errorf("read raw payload %s: %w", seriesID, err)
	}
	return data, nil
}

// List returns the ids of all stored payloads, sorted. A missing directory
// yields no ids.
func (s *RawStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list raw payloads: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, rawPrefix) || !strings.HasSuffix(name, rawSuffix) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(strings.TrimPrefix(name, rawPrefix), rawSuffix))
	}
	sort.Strings(ids)
	return ids, nil
}
