package run

import (
	"fmt"
	"os"
	"sort"
	"time"
)

// Summary describes one run directory.
type Summary struct {
	ID          string
	Path        string
	CreatedAt   *time.Time
	InputSource string
	Completed   int
	Failed      int
	LastUpdated *time.Time
}

// List returns every run under root, newest first by created_at. Runs
// without a readable config sort last. A missing root yields no runs.
func List(root string) ([]Summary, error) {
	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	var runs []Summary
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		l := NewLayout(root, entry.Name())
		s := Summary{ID: l.ID, Path: l.Dir()}

		if cfg, err := LoadConfig(l); err == nil {
			created := cfg.CreatedAt
			s.CreatedAt = &created
			s.InputSource = cfg.InputSource
		}
		if rec, err := l.Store().Load(); err == nil {
			s.Completed, s.Failed = rec.Counts()
			s.LastUpdated = rec.LastUpdated
		}
		runs = append(runs, s)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		a, b := runs[i].CreatedAt, runs[j].CreatedAt
		switch {
		case a == nil && b == nil:
			return runs[i].ID > runs[j].ID
		case a == nil:
			return false
		case b == nil:
			return true
		case a.Equal(*b):
			return runs[i].ID > runs[j].ID
		default:
			return a.After(*b)
		}
	})
	return runs, nil
}

// LatestID returns the id of the newest run.
func LatestID(root string) (string, error) {
	runs, err := List(root)
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", ErrNoRuns
	}
	return runs[0].ID, nil
}
