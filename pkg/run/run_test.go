package run

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Sternrassler/lol-series-fetcher/pkg/worklist"
	"github.com/google/go-cmp/cmp"
)

func createRun(t *testing.T, root, id string, created time.Time) Layout {
	t.Helper()
	l := NewLayout(root, id)
	if err := l.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs() error = %v", err)
	}
	cfg, err := NewConfig(id, created, "", "", []string{"S1", "S2"}, 0, "http://grid.test")
	if err != nil {
		t.Fatalf("NewConfig() error = %v", err)
	}
	if err := SaveConfig(l, cfg); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}
	return l
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestNewID(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 5, 7, 0, time.UTC)
	if got := NewID(now); got != "20240601_090507" {
		t.Errorf("NewID() = %q, want 20240601_090507", got)
	}
}

func TestLayout_Paths(t *testing.T) {
	l := NewLayout("/out", "r1")
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"progress", l.ProgressPath(), filepath.Join("/out", "r1", "progress.json")},
		{"log", l.LogPath(), filepath.Join("/out", "r1", "fetch.log")},
		{"config", l.ConfigPath(), filepath.Join("/out", "r1", "run_config.json")},
		{"raw", l.RawDir(), filepath.Join("/out", "r1", "raw")},
		{"sqlite", l.SQLitePath(), filepath.Join("/out", "r1", "csv", "series.db")},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s path = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestResolve(t *testing.T) {
	root := t.TempDir()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	l, isNew, err := Resolve(root, "", now)
	if err != nil {
		t.Fatalf("Resolve(\"\") error = %v", err)
	}
	if !isNew || l.ID != "20240601_120000" {
		t.Errorf("Resolve(\"\") = %q new=%v, want 20240601_120000 new=true", l.ID, isNew)
	}

	if _, _, err := Resolve(root, Latest, now); !errors.Is(err, ErrNoRuns) {
		t.Errorf("Resolve(latest) on empty root error = %v, want ErrNoRuns", err)
	}

	createRun(t, root, "old", now.Add(-time.Hour))
	createRun(t, root, "new", now)

	l, isNew, err = Resolve(root, Latest, now)
	if err != nil {
		t.Fatalf("Resolve(latest) error = %v", err)
	}
	if isNew || l.ID != "new" {
		t.Errorf("Resolve(latest) = %q new=%v, want new new=false", l.ID, isNew)
	}

	if _, isNew, err = Resolve(root, "old", now); err != nil || isNew {
		t.Errorf("Resolve(old) new=%v err=%v, want existing run", isNew, err)
	}

	if _, isNew, err = Resolve(root, "fresh", now); err != nil || !isNew {
		t.Errorf("Resolve(fresh) new=%v err=%v, want new run", isNew, err)
	}
}

func TestOpen(t *testing.T) {
	root := t.TempDir()

	if _, err := Open(root, ""); !errors.Is(err, ErrRunRequired) {
		t.Errorf("Open(\"\") error = %v, want ErrRunRequired", err)
	}
	if _, err := Open(root, "missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Open(missing) error = %v, want ErrRunNotFound", err)
	}

	createRun(t, root, "r1", time.Now())
	l, err := Open(root, "r1")
	if err != nil {
		t.Fatalf("Open(r1) error = %v", err)
	}
	if l.ID != "r1" {
		t.Errorf("Open(r1).ID = %q", l.ID)
	}
}

func TestList_NewestFirst(t *testing.T) {
	root := t.TempDir()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	createRun(t, root, "b", base.Add(-2*time.Hour))
	createRun(t, root, "a", base)
	if err := os.MkdirAll(filepath.Join(root, "no-config"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(root, "stray.txt"), "x")

	l := NewLayout(root, "a")
	rec, err := l.Store().Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	rec.MarkCompleted("S1", "p")
	rec.MarkFailed("S2", "Request timeout")
	if err := l.Store().Save(rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	runs, err := List(root)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("List() returned %d runs, want 3", len(runs))
	}
	var ids []string
	for _, r := range runs {
		ids = append(ids, r.ID)
	}
	if diff := cmp.Diff([]string{"a", "b", "no-config"}, ids); diff != "" {
		t.Errorf("run order mismatch (-want +got):\n%s", diff)
	}
	if runs[0].Completed != 1 || runs[0].Failed != 1 {
		t.Errorf("run a counts = %d/%d, want 1/1", runs[0].Completed, runs[0].Failed)
	}
	if runs[0].LastUpdated == nil {
		t.Error("run a LastUpdated is nil")
	}
	if runs[0].InputSource != InputExplicit {
		t.Errorf("run a InputSource = %q, want %q", runs[0].InputSource, InputExplicit)
	}
}

func TestList_MissingRoot(t *testing.T) {
	runs, err := List(filepath.Join(t.TempDir(), "none"))
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("List() = %v, want none", runs)
	}
}

func TestConfig_Worklist(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "series.csv")
	writeFile(t, csvPath, "SeriesID\n3\n1\n2\n1\n")

	cfg, err := NewConfig("r", time.Now(), csvPath, "SeriesID", nil, 2, "u")
	if err != nil {
		t.Fatalf("NewConfig(csv) error = %v", err)
	}
	ids, err := cfg.Worklist()
	if err != nil {
		t.Fatalf("Worklist() error = %v", err)
	}
	if diff := cmp.Diff([]string{"1", "2"}, ids); diff != "" {
		t.Errorf("csv worklist mismatch (-want +got):\n%s", diff)
	}

	cfg, err = NewConfig("r", time.Now(), csvPath, "", []string{"9", "8"}, 0, "u")
	if err != nil {
		t.Fatalf("NewConfig(ids) error = %v", err)
	}
	if cfg.InputSource != InputExplicit {
		t.Errorf("InputSource = %q, want %q", cfg.InputSource, InputExplicit)
	}
	ids, err = cfg.Worklist()
	if err != nil {
		t.Fatalf("Worklist() error = %v", err)
	}
	if diff := cmp.Diff([]string{"9", "8"}, ids); diff != "" {
		t.Errorf("explicit worklist mismatch (-want +got):\n%s", diff)
	}

	if _, err := NewConfig("r", time.Now(), "", "", nil, 0, "u"); !errors.Is(err, ErrNoInput) {
		t.Errorf("NewConfig() without input error = %v, want ErrNoInput", err)
	}
}

func TestConfig_RejectsUnusableIDs(t *testing.T) {
	if _, err := NewConfig("r", time.Now(), "", "", []string{"a/b", "S2"}, 0, "u"); !errors.Is(err, worklist.ErrInvalidID) {
		t.Errorf("NewConfig() error = %v, want ErrInvalidID", err)
	}

	// A hand-edited run_config.json is checked again on resume.
	cfg := &Config{RunID: "r", InputSource: InputExplicit, SeriesIDs: []string{"S1", ".."}}
	if _, err := cfg.Worklist(); !errors.Is(err, worklist.ErrInvalidID) {
		t.Errorf("Worklist() error = %v, want ErrInvalidID", err)
	}
}

func TestConfig_RoundTrip(t *testing.T) {
	root := t.TempDir()
	created := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	l := createRun(t, root, "r1", created)

	cfg, err := LoadConfig(l)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.RunID != "r1" {
		t.Errorf("RunID = %q, want r1", cfg.RunID)
	}
	if !cfg.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", cfg.CreatedAt, created)
	}
	if diff := cmp.Diff([]string{"S1", "S2"}, cfg.SeriesIDs); diff != "" {
		t.Errorf("SeriesIDs mismatch (-want +got):\n%s", diff)
	}
	if cfg.Limit != nil {
		t.Errorf("Limit = %d, want nil", *cfg.Limit)
	}

	if _, err := LoadConfig(NewLayout(root, "other")); !errors.Is(err, ErrNoConfig) {
		t.Errorf("LoadConfig(other) error = %v, want ErrNoConfig", err)
	}
}

func TestRawStore(t *testing.T) {
	s := NewRawStore(filepath.Join(t.TempDir(), "raw"))

	path, err := s.Write("S2", []byte(`{"data":{}}`))
	if err != nil {
		t.Fatalf("Write(S2) error = %v", err)
	}
	if path != s.Path("S2") {
		t.Errorf("Write(S2) path = %q, want %q", path, s.Path("S2"))
	}
	for _, body := range []string{`{}`, `{"v":2}`} {
		if _, err := s.Write("S1", []byte(body)); err != nil {
			t.Fatalf("Write(S1) error = %v", err)
		}
	}

	data, err := s.Read("S1")
	if err != nil {
		t.Fatalf("Read(S1) error = %v", err)
	}
	if string(data) != `{"v":2}` {
		t.Errorf("Read(S1) = %s, want the last write", data)
	}

	ids, err := s.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if diff := cmp.Diff([]string{"S1", "S2"}, ids); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}

	if _, err := s.Write("../escape", []byte(`{}`)); !errors.Is(err, ErrInvalidSeriesID) {
		t.Errorf("Write(../escape) error = %v, want ErrInvalidSeriesID", err)
	}
}

func TestInspectAndReset(t *testing.T) {
	root := t.TempDir()
	l := createRun(t, root, "r1", time.Now())
	if _, err := l.Raw().Write("S1", []byte(`{}`)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	writeFile(t, filepath.Join(l.ExportDir(), "teams.csv"), "id,name\n")

	inv, err := Inspect(l)
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	if inv.RawFiles != 1 || inv.ExportFiles != 1 {
		t.Errorf("Inspect() files = raw %d export %d, want 1 and 1", inv.RawFiles, inv.ExportFiles)
	}
	if inv.HasProgress {
		t.Error("Inspect() HasProgress = true, want false")
	}

	if err := Reset(l); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if l.Exists() {
		t.Error("run directory still exists after Reset")
	}
	if err := Reset(l); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("second Reset() error = %v, want ErrRunNotFound", err)
	}
}
