package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/lol-series-fetcher/internal/testutil"
	"github.com/Sternrassler/lol-series-fetcher/pkg/config"
	"github.com/Sternrassler/lol-series-fetcher/pkg/run"
	"github.com/Sternrassler/lol-series-fetcher/pkg/worklist"
)

// execute runs the root command with args and stdin and returns stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// workspace isolates config discovery in a temp dir and returns the output root.
func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(config.APIKeyEnv, "")
	return filepath.Join(dir, "outputs")
}

func writeConfig(t *testing.T, apiURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := fmt.Sprintf(`api:
  url: %s
  key: test-key
  rate_limit: 6000
log:
  level: warn
  pretty: false
`, apiURL)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func mustExecute(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	out, err := execute(t, stdin, args...)
	if err != nil {
		t.Fatalf("%s: error = %v\noutput:\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func contains(t *testing.T, out string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

func TestEstimateText(t *testing.T) {
	interval := 3100 * time.Millisecond
	tests := []struct {
		count int
		want  string
	}{
		{0, "0 seconds"},
		{1, "6 seconds"},
		{10, "1.0 minutes"},
		{1000, "1.7 hours"},
	}
	for _, tt := range tests {
		if got := estimateText(tt.count, interval); got != tt.want {
			t.Errorf("estimateText(%d) = %q, want %q", tt.count, got, tt.want)
		}
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"enter", "\n", true},
		{"y", "y\n", true},
		{"yes upper", "YES\n", true},
		{"y without newline", "y", true},
		{"n", "n\n", false},
		{"other", "maybe\n", false},
		{"eof", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			if got := confirm(strings.NewReader(tt.input), &out, "Delete this run"); got != tt.want {
				t.Errorf("confirm(%q) = %v, want %v", tt.input, got, tt.want)
			}
			contains(t, out.String(), "Delete this run? [Y/n]: ")
		})
	}
}

func TestRuns_Empty(t *testing.T) {
	root := workspace(t)

	out := mustExecute(t, "", "runs", "--output", root)
	contains(t, out, "No runs found.")
}

func TestFetch_ConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{"missing api key", []string{"--series", "S1"}, config.ErrMissingAPIKey},
		{"new run without input", []string{"--api-key", "k"}, run.ErrNoInput},
		{"latest without runs", []string{"--api-key", "k", "--run", "latest"}, run.ErrNoRuns},
		{"id unusable as file name", []string{"--api-key", "k", "--series", "a/b,S2", "--yes"}, worklist.ErrInvalidID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := workspace(t)

			args := append([]string{"fetch", "--output", root}, tt.args...)
			if _, err := execute(t, "", args...); !errors.Is(err, tt.want) {
				t.Errorf("fetch error = %v, want %v", err, tt.want)
			}
			if exists(root) {
				t.Error("output root created before the configuration was accepted")
			}
		})
	}
}

func TestFetch_DryRunCreatesNothing(t *testing.T) {
	root := workspace(t)

	out := mustExecute(t, "", "fetch", "--output", root, "--api-key", "k", "--series", " S1, S2,,", "--dry-run")

	contains(t, out, "GRID Data Fetcher - Run Preview", "(new)", run.InputExplicit, "Dry run - no changes made.")
	if exists(root) {
		t.Error("dry run created the output root")
	}
}

func TestFetch_DeclinedPrompt(t *testing.T) {
	root := workspace(t)

	out := mustExecute(t, "n\n", "fetch", "--output", root, "--api-key", "k", "--series", "S1")
	contains(t, out, "Aborted.")
	if exists(root) {
		t.Error("declined fetch created the output root")
	}
}

func TestStatus_RequiresRun(t *testing.T) {
	root := workspace(t)

	if _, err := execute(t, "", "status", "--output", root); !errors.Is(err, run.ErrRunRequired) {
		t.Errorf("status error = %v, want ErrRunRequired", err)
	}
}

func TestExport_FlagErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown format", []string{"--format", "parquet"}, "export format must be one of"},
		{"upload without bucket", []string{"--upload"}, "storage.bucket"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := workspace(t)

			args := append([]string{"export", "--output", root, "--run", "latest"}, tt.args...)
			_, err := execute(t, "", args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("export error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestLifecycle_FetchStatusExportReset(t *testing.T) {
	root := workspace(t)
	mock := testutil.NewMockGRID()
	defer mock.Close()
	mock.SetVersion("S1", "3.31")
	mock.SetVersion("S2", "3.8")
	cfgPath := writeConfig(t, mock.URL())

	out := mustExecute(t, "", "fetch", "--config", cfgPath, "--output", root, "--run", "league", "--series", "S1,S2,S3", "--yes")
	contains(t, out, "Requests: 5", "To export: series-fetcher export --run league")

	layout := run.NewLayout(root, "league")
	rec, err := layout.Store().Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(rec.Completed) != 2 || len(rec.Failed) != 1 {
		t.Errorf("record = %d completed / %d failed, want 2/1", len(rec.Completed), len(rec.Failed))
	}
	for _, path := range []string{layout.ConfigPath(), layout.LogPath()} {
		if !exists(path) {
			t.Errorf("%s not written", path)
		}
	}

	// A second fetch resolves nothing new.
	before := mock.GetRequestCount()
	mustExecute(t, "", "fetch", "--config", cfgPath, "--output", root, "--run", "league", "--yes")
	if after := mock.GetRequestCount(); after != before {
		t.Errorf("second fetch made %d requests, want 0", after-before)
	}

	out = mustExecute(t, "", "runs", "--config", cfgPath, "--output", root)
	contains(t, out, "Available Runs (1)", "league")

	out = mustExecute(t, "", "status", "--config", cfgPath, "--output", root, "--run", "latest")
	contains(t, out, "Run Status: league", "Version distribution:", "v3.31", "S3", "Series files saved: 2")

	out = mustExecute(t, "", "export", "--config", cfgPath, "--output", root, "--run", "league")
	contains(t, out, "Loaded 2 series", "Export Summary")
	if !exists(filepath.Join(layout.ExportDir(), "player_game_stats.csv")) {
		t.Error("player_game_stats.csv not written")
	}

	out = mustExecute(t, "n\n", "reset", "--config", cfgPath, "--output", root, "--run", "league")
	contains(t, out, "cannot be undone", "Aborted. Run not deleted.")
	if !exists(layout.Dir()) {
		t.Error("declined reset deleted the run")
	}

	out = mustExecute(t, "", "reset", "--config", cfgPath, "--output", root, "--run", "league", "--yes")
	contains(t, out, "Run league deleted.")
	if exists(layout.Dir()) {
		t.Error("run directory still exists after reset")
	}
}

func TestChampions_WritesReferenceFiles(t *testing.T) {
	root := workspace(t)
	mock := testutil.NewMockDDragon()
	defer mock.Close()
	t.Setenv("SERIES_FETCHER_DDRAGON_BASE_URL", mock.URL())
	dest := filepath.Join(t.TempDir(), "reference")

	out := mustExecute(t, "", "champions", "--output", root, "--dest", dest)

	contains(t, out, "Data Dragon version: 14.10.1", "Kaisa")
	for _, name := range []string{"champions_datadragon.json", "champion_icon_mapping.csv", "grid_to_riot_key.json"} {
		if !exists(filepath.Join(dest, name)) {
			t.Errorf("%s not written", name)
		}
	}
}
