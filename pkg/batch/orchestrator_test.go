package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/lol-series-fetcher/internal/testutil"
	"github.com/Sternrassler/lol-series-fetcher/pkg/client"
	"github.com/Sternrassler/lol-series-fetcher/pkg/progress"
	"github.com/Sternrassler/lol-series-fetcher/pkg/query"
	"github.com/Sternrassler/lol-series-fetcher/pkg/run"
	"github.com/Sternrassler/lol-series-fetcher/pkg/worklist"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/rs/zerolog"
)

type fakeFetcher struct {
	versions map[string]string
	pullErrs map[string]error
	probes   []string
	pulls    []string
	tiers    map[string]query.Tier
	onProbe  func(n int)
	onPull   func(n int)
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		versions: make(map[string]string),
		pullErrs: make(map[string]error),
		tiers:    make(map[string]query.Tier),
	}
}

func (f *fakeFetcher) ProbeVersion(ctx context.Context, id string) (string, error) {
	f.probes = append(f.probes, id)
	if f.onProbe != nil {
		f.onProbe(len(f.probes))
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	v, ok := f.versions[id]
	if !ok {
		return "", &client.FetchError{Class: client.ErrorClassNetwork, Reason: "Network error: connection refused"}
	}
	return v, nil
}

func (f *fakeFetcher) FetchSeries(ctx context.Context, id string, q query.Query) (*client.SeriesResponse, error) {
	f.pulls = append(f.pulls, id)
	f.tiers[id] = q.Tier
	if f.onPull != nil {
		f.onPull(len(f.pulls))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := f.pullErrs[id]; err != nil {
		return nil, err
	}
	body := fmt.Sprintf(`{"data":{"seriesState":{"id":%q}}}`, id)
	return &client.SeriesResponse{
		Raw: []byte(body),
		State: &client.SeriesState{
			ID:    id,
			Teams: []client.SeriesTeam{{Name: "Alpha"}, {Name: "Beta"}},
		},
	}, nil
}

func (f *fakeFetcher) calls() int {
	return len(f.probes) + len(f.pulls)
}

type memRaw struct {
	files map[string][]byte
}

func (m *memRaw) Write(id string, data []byte) (string, error) {
	if m.files == nil {
		m.files = make(map[string][]byte)
	}
	m.files[id] = data
	return "raw/series_" + id + ".json", nil
}

func newOrchestrator(t *testing.T, f Fetcher, raw RawWriter, logger zerolog.Logger) (*Orchestrator, *progress.Store) {
	t.Helper()
	store := progress.NewStore(filepath.Join(t.TempDir(), progress.FileName))
	cfg := DefaultConfig()
	cfg.Interval = 0
	return New(f, store, raw, cfg, logger), store
}

func load(t *testing.T, store *progress.Store) *progress.Record {
	t.Helper()
	rec, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return rec
}

func TestRun_OutcomesAndVersionStats(t *testing.T) {
	f := newFakeFetcher()
	f.versions["A"] = "3.31"
	f.versions["B"] = "3.5"
	f.versions["C"] = "3.43"
	f.pullErrs["C"] = &client.FetchError{Class: client.ErrorClassGraphQL, Reason: "Series not available"}

	o, store := newOrchestrator(t, f, &memRaw{}, zerolog.Nop())
	summary, err := o.Run(context.Background(), []string{"A", "B", "C", "D"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.Succeeded != 2 || summary.Failed != 2 || summary.Remaining != 4 {
		t.Errorf("summary = %d ok / %d failed / %d remaining, want 2/2/4",
			summary.Succeeded, summary.Failed, summary.Remaining)
	}

	rec := load(t, store)
	if diff := cmp.Diff(map[string]string{"A": "raw/series_A.json", "B": "raw/series_B.json"}, rec.Completed); diff != "" {
		t.Errorf("completed mismatch (-want +got):\n%s", diff)
	}
	wantFailed := map[string]string{
		"C": "Series not available",
		"D": client.ReasonVersionUnavailable,
	}
	if diff := cmp.Diff(wantFailed, rec.Failed); diff != "" {
		t.Errorf("failed mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]int{"v3.31": 1, "v3.5": 1, "v3.43": 1}, rec.VersionStats); diff != "" {
		t.Errorf("version stats mismatch (-want +got):\n%s", diff)
	}
	if rec.StartedAt == nil || rec.LastUpdated == nil {
		t.Error("record timestamps not set")
	}

	if f.tiers["A"] != query.TierV330 {
		t.Errorf("tier for 3.31 = %s, want %s", f.tiers["A"], query.TierV330)
	}
	if f.tiers["B"] != query.TierBase {
		t.Errorf("tier for 3.5 = %s, want %s", f.tiers["B"], query.TierBase)
	}
	if diff := cmp.Diff([]string{"A", "B", "C"}, f.pulls); diff != "" {
		t.Errorf("data pulls mismatch, none expected after a failed version lookup (-want +got):\n%s", diff)
	}
}

func TestRun_Idempotent(t *testing.T) {
	f := newFakeFetcher()
	f.versions["A"] = "3.31"
	f.versions["B"] = "3.0"
	ids := []string{"A", "B", "C"}

	o, store := newOrchestrator(t, f, &memRaw{}, zerolog.Nop())
	if _, err := o.Run(context.Background(), ids); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	first := load(t, store)

	second := newFakeFetcher()
	o2 := New(second, store, &memRaw{}, o.config, zerolog.Nop())
	summary, err := o2.Run(context.Background(), ids)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}

	if n := second.calls(); n != 0 {
		t.Errorf("second run made %d API calls, want 0", n)
	}
	if summary.Remaining != 0 || summary.AlreadyCompleted != 2 || summary.AlreadyFailed != 1 {
		t.Errorf("summary = remaining %d completed %d failed %d, want 0/2/1",
			summary.Remaining, summary.AlreadyCompleted, summary.AlreadyFailed)
	}

	if diff := cmp.Diff(first, load(t, store)); diff != "" {
		t.Errorf("record changed on idempotent run (-first +after):\n%s", diff)
	}
}

func TestRun_Resumable(t *testing.T) {
	ids := []string{"S1", "S2", "S3", "S4", "S5", "S6"}
	setup := func() *fakeFetcher {
		f := newFakeFetcher()
		for i, id := range ids {
			if i == 2 {
				continue
			}
			f.versions[id] = fmt.Sprintf("3.%d", 20+i*5)
		}
		f.pullErrs["S5"] = &client.FetchError{Class: client.ErrorClassTimeout, Reason: client.ReasonTimeout}
		return f
	}

	// Uninterrupted reference run.
	ref, refStore := newOrchestrator(t, setup(), &memRaw{}, zerolog.Nop())
	if _, err := ref.Run(context.Background(), ids); err != nil {
		t.Fatalf("reference Run() error = %v", err)
	}
	want := load(t, refStore)

	for k := 0; k < len(ids); k++ {
		t.Run(fmt.Sprintf("stop after %d", k), func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			first := setup()
			first.onProbe = func(n int) {
				if n == k+1 {
					cancel()
				}
			}
			o, store := newOrchestrator(t, first, &memRaw{}, zerolog.Nop())
			summary, err := o.Run(ctx, ids)
			if !errors.Is(err, context.Canceled) {
				t.Fatalf("Run() error = %v, want context.Canceled", err)
			}
			if !summary.Interrupted {
				t.Error("summary.Interrupted = false")
			}
			if got := summary.Processed(); got != k {
				t.Errorf("Processed() = %d, want %d", got, k)
			}

			c, f := load(t, store).Counts()
			if c+f != k {
				t.Errorf("resolved units before the interrupt = %d, want %d", c+f, k)
			}

			second := setup()
			o2 := New(second, store, &memRaw{}, o.config, zerolog.Nop())
			if _, err := o2.Run(context.Background(), ids); err != nil {
				t.Fatalf("resumed Run() error = %v", err)
			}
			if diff := cmp.Diff(ids[k:], second.probes); diff != "" {
				t.Errorf("restart must begin at the first unresolved unit (-want +got):\n%s", diff)
			}

			ignoreTimes := cmpopts.IgnoreFields(progress.Record{}, "StartedAt", "LastUpdated")
			if diff := cmp.Diff(want, load(t, store), ignoreTimes); diff != "" {
				t.Errorf("resumed record differs from uninterrupted run (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRun_InterruptBeforeDataPull(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := newFakeFetcher()
	f.versions["A"] = "3.31"
	f.onPull = func(int) { cancel() }
	raw := &memRaw{}

	o, store := newOrchestrator(t, f, raw, zerolog.Nop())
	summary, err := o.Run(ctx, []string{"A"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if !summary.Interrupted {
		t.Error("summary.Interrupted = false")
	}
	if summary.Processed() != 0 {
		t.Errorf("Processed() = %d, want 0", summary.Processed())
	}

	rec := load(t, store)
	if rec.IsDone("A") {
		t.Error("unit interrupted after its version lookup must stay pending")
	}
	if len(rec.VersionStats) != 0 {
		t.Errorf("VersionStats = %v, want empty", rec.VersionStats)
	}
	if len(raw.files) != 0 {
		t.Errorf("raw payloads written = %d, want 0", len(raw.files))
	}

	// The restart repeats both calls for the pending unit.
	second := newFakeFetcher()
	second.versions["A"] = "3.31"
	if _, err := New(second, store, raw, o.config, zerolog.Nop()).Run(context.Background(), []string{"A"}); err != nil {
		t.Fatalf("resumed Run() error = %v", err)
	}
	if diff := cmp.Diff([]string{"A"}, second.probes); diff != "" {
		t.Errorf("resumed version lookups mismatch (-want +got):\n%s", diff)
	}
	rec = load(t, store)
	if !rec.IsDone("A") {
		t.Error("unit not completed after resume")
	}
	if diff := cmp.Diff(map[string]int{"v3.31": 1}, rec.VersionStats); diff != "" {
		t.Errorf("version counted more than once (-want +got):\n%s", diff)
	}
}

func TestRun_RejectsUnusableIDsBeforeAnyRequest(t *testing.T) {
	f := newFakeFetcher()
	f.versions["S2"] = "3.31"

	o, store := newOrchestrator(t, f, &memRaw{}, zerolog.Nop())
	for attempt := 1; attempt <= 2; attempt++ {
		_, err := o.Run(context.Background(), []string{"a/b", "S2"})
		if !errors.Is(err, worklist.ErrInvalidID) {
			t.Fatalf("attempt %d: Run() error = %v, want ErrInvalidID", attempt, err)
		}
	}
	if n := f.calls(); n != 0 {
		t.Errorf("API calls = %d, want 0", n)
	}
	if c, failed := load(t, store).Counts(); c+failed != 0 {
		t.Errorf("resolved units = %d, want 0", c+failed)
	}
}

func TestRun_MalformedVersionAborts(t *testing.T) {
	f := newFakeFetcher()
	f.versions["A"] = "3.31"
	f.versions["B"] = "three"
	f.versions["C"] = "3.0"

	o, store := newOrchestrator(t, f, &memRaw{}, zerolog.Nop())
	if _, err := o.Run(context.Background(), []string{"A", "B", "C"}); !errors.Is(err, query.ErrMalformedVersion) {
		t.Fatalf("Run() error = %v, want ErrMalformedVersion", err)
	}

	rec := load(t, store)
	if rec.IsDone("B") || rec.IsDone("C") {
		t.Error("units from the malformed version onward must stay pending")
	}
	if diff := cmp.Diff(map[string]int{"v3.31": 1}, rec.VersionStats); diff != "" {
		t.Errorf("version stats mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"A", "B"}, f.probes); diff != "" {
		t.Errorf("version lookups mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_CheckpointAndOutcomeLines(t *testing.T) {
	f := newFakeFetcher()
	for _, id := range []string{"A", "B", "C"} {
		f.versions[id] = "3.31"
	}

	buf := &bytes.Buffer{}
	logger := zerolog.New(buf)

	store := progress.NewStore(filepath.Join(t.TempDir(), progress.FileName))
	cfg := Config{BatchSize: 2, Interval: 0}
	o := New(f, store, &memRaw{}, cfg, logger)

	clock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	o.now = func() time.Time {
		clock = clock.Add(15 * time.Second)
		return clock
	}

	if _, err := o.Run(context.Background(), []string{"A", "B", "C", "D"}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"[1/4] A: OK - v3.31: Alpha vs Beta",
		"[4/4] D: FAILED - Could not fetch version",
		"--- Checkpoint: 2/4 processed",
		"Total success: 3",
		"v3.31: 3",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q", want)
		}
	}
	if n := strings.Count(out, "--- Checkpoint:"); n != 2 {
		t.Errorf("checkpoint lines = %d, want 2", n)
	}
}

func TestRun_EmptyRemaining(t *testing.T) {
	f := newFakeFetcher()
	o, _ := newOrchestrator(t, f, &memRaw{}, zerolog.Nop())

	summary, err := o.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Total != 0 || f.calls() != 0 {
		t.Errorf("total = %d, calls = %d, want 0 and 0", summary.Total, f.calls())
	}
}

// Worklist S1, S2: S1's version lookup fails at the transport level, S2
// reports 3.31 and must be pulled with the v3.30 query.
func TestRun_ScenarioAgainstMockGRID(t *testing.T) {
	mock := testutil.NewMockGRID()
	defer mock.Close()
	mock.SetProbeResponse("S1", testutil.NewServerErrorResponse())
	mock.SetVersion("S2", "3.31")

	cfg := client.DefaultConfig("test-key")
	cfg.URL = mock.URL()
	cfg.RequestsPerMinute = 0
	c, err := client.New(cfg)
	if err != nil {
		t.Fatalf("client.New() error = %v", err)
	}

	layout := run.NewLayout(t.TempDir(), "scenario")
	if err := layout.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs() error = %v", err)
	}

	bcfg := DefaultConfig()
	bcfg.Interval = 0
	o := New(c, layout.Store(), layout.Raw(), bcfg, zerolog.Nop())

	summary, err := o.Run(context.Background(), []string{"S1", "S2"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Succeeded != 1 || summary.Failed != 1 {
		t.Errorf("summary = %d ok / %d failed, want 1/1", summary.Succeeded, summary.Failed)
	}

	rec := load(t, layout.Store())
	if got := rec.Failed["S1"]; got != client.ReasonVersionUnavailable {
		t.Errorf("S1 reason = %q, want %q", got, client.ReasonVersionUnavailable)
	}
	if got := rec.Completed["S2"]; got != layout.Raw().Path("S2") {
		t.Errorf("S2 path = %q, want %q", got, layout.Raw().Path("S2"))
	}
	if diff := cmp.Diff(map[string]int{"v3.31": 1}, rec.VersionStats); diff != "" {
		t.Errorf("version stats mismatch (-want +got):\n%s", diff)
	}

	if n := len(mock.DataPulls("S1")); n != 0 {
		t.Errorf("S1 data pulls = %d, want 0 after a failed version lookup", n)
	}
	pulls := mock.DataPulls("S2")
	if len(pulls) != 1 {
		t.Fatalf("S2 data pulls = %d, want 1", len(pulls))
	}
	if pulls[0].Query != query.ForTier(query.TierV330).Text {
		t.Errorf("S2 pulled with the wrong query tier:\n%s", pulls[0].Query)
	}

	raw, err := layout.Raw().Read("S2")
	if err != nil {
		t.Fatalf("Read(S2) error = %v", err)
	}
	if !strings.Contains(string(raw), `"id":"S2"`) {
		t.Errorf("raw payload = %s, want the series body", raw)
	}
}

func TestRun_PersistFailureAborts(t *testing.T) {
	f := newFakeFetcher()
	f.versions["A"] = "3.31"

	o, store := newOrchestrator(t, f, failingRaw{}, zerolog.Nop())
	if _, err := o.Run(context.Background(), []string{"A"}); err == nil {
		t.Fatal("Run() error = nil, want persist failure")
	}
	if load(t, store).IsDone("A") {
		t.Error("unit marked done although its payload was not written")
	}
}

type failingRaw struct{}

func (failingRaw) Write(string, []byte) (string, error) {
	return "", errors.New("disk full")
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{42 * time.Second, "42s"},
		{90 * time.Second, "1.5m"},
		{62 * time.Second, "1.0m"},
		{2 * time.Hour, "2.0h"},
		{5400 * time.Second, "1.5h"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
