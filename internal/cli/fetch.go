package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/Sternrassler/lol-series-fetcher/pkg/batch"
	"github.com/Sternrassler/lol-series-fetcher/pkg/client"
	"github.com/Sternrassler/lol-series-fetcher/pkg/logging"
	"github.com/Sternrassler/lol-series-fetcher/pkg/metrics"
	"github.com/Sternrassler/lol-series-fetcher/pkg/progress"
	"github.com/Sternrassler/lol-series-fetcher/pkg/ratelimit"
	"github.com/Sternrassler/lol-series-fetcher/pkg/run"
	"github.com/Sternrassler/lol-series-fetcher/pkg/worklist"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type FetchOptions struct {
	GlobalOptions

	RunName     string
	Input       string
	Column      string
	Series      string
	Limit       int
	BatchSize   int
	APIKey      string
	Yes         bool
	DryRun      bool
	MetricsAddr string

	seriesIDs []string
}

func DefaultFetchOptions() *FetchOptions {
	return &FetchOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdFetch() *cobra.Command {
	o := DefaultFetchOptions()
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch series from GRID into a new or existing run.",
		Example: `  series-fetcher fetch --input series.csv --limit 10
  series-fetcher fetch --series 2616320,2616321 --yes
  series-fetcher fetch --run latest`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args)
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *FetchOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVarP(&o.RunName, "run", "r", o.RunName, "Run to resume, or \"latest\". A new run is created when empty or unknown.")
	fs.StringVarP(&o.Input, "input", "i", o.Input, "CSV file with series ids")
	fs.StringVar(&o.Column, "column", o.Column, "CSV column holding series ids (default from config: SeriesID)")
	fs.StringVarP(&o.Series, "series", "s", o.Series, "Comma-separated series ids")
	fs.IntVarP(&o.Limit, "limit", "l", o.Limit, "Process at most this many series")
	fs.IntVarP(&o.BatchSize, "batch-size", "b", o.BatchSize, "Series between checkpoint log lines (default from config: 50)")
	fs.StringVar(&o.APIKey, "api-key", o.APIKey, "GRID API key (default: $GRID_API_KEY)")
	fs.BoolVarP(&o.Yes, "yes", "y", o.Yes, "Skip the confirmation prompt")
	fs.BoolVar(&o.DryRun, "dry-run", o.DryRun, "Show the run preview and exit")
	fs.StringVar(&o.MetricsAddr, "metrics-addr", o.MetricsAddr, "Serve /metrics and /health on this address while fetching")
}

func (o *FetchOptions) Complete(cmd *cobra.Command, args []string) error {
	if err := o.GlobalOptions.Complete(cmd, args); err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("api-key") {
		o.Config.API.Key = o.APIKey
	}
	if flags.Changed("batch-size") {
		o.Config.Fetch.BatchSize = o.BatchSize
	}
	if !flags.Changed("column") {
		o.Column = o.Config.Fetch.IDColumn
	}
	if !flags.Changed("metrics-addr") {
		o.MetricsAddr = o.Config.Metrics.Addr
	}
	o.seriesIDs = worklist.FromList(o.Series)
	return nil
}

func (o *FetchOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	if err := o.Config.Validate(); err != nil {
		return err
	}
	if o.Limit < 0 {
		return fmt.Errorf("--limit must be >= 0 (got %d)", o.Limit)
	}
	return nil
}

// fetchPlan is a resolved run and its worklist.
type fetchPlan struct {
	layout    run.Layout
	isNew     bool
	runConfig *run.Config
	ids       []string
	source    string
}

func (o *FetchOptions) Run(ctx context.Context, args []string) error {
	plan, err := o.plan()
	if err != nil {
		return err
	}

	interval := ratelimit.DelayFor(o.Config.API.RateLimit)
	o.preview(plan, interval)

	if o.DryRun {
		fmt.Fprintln(o.Out, "\nDry run - no changes made.")
		return nil
	}
	if !o.Yes && !confirm(o.In, o.Out, "Start fetching") {
		fmt.Fprintln(o.Out, "Aborted.")
		return nil
	}

	if err := plan.layout.EnsureDirs(); err != nil {
		return err
	}
	if plan.isNew {
		if err := run.SaveConfig(plan.layout, plan.runConfig); err != nil {
			return err
		}
	}

	runLog, err := logging.OpenRunLog(logging.Writer(o.LogConfig), plan.layout.LogPath())
	if err != nil {
		return err
	}
	defer runLog.Close()

	logger := runLog.With().
		Str("run_id", plan.layout.ID).
		Str("session_id", o.SessionID).
		Logger()

	if o.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, o.MetricsAddr); err != nil {
				logger.Error().Err(err).Str("addr", o.MetricsAddr).Msg("Metrics server failed")
			}
		}()
	}

	clientCfg := client.DefaultConfig(o.Config.API.Key)
	clientCfg.URL = o.Config.API.URL
	clientCfg.Timeout = o.Config.API.Timeout
	clientCfg.RequestsPerMinute = o.Config.API.RateLimit
	c, err := client.New(clientCfg)
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	logger.Info().Msgf("Run: %s", plan.layout.ID)
	logger.Info().Msgf("Output: %s", plan.layout.Dir())
	logger.Info().Str("endpoint", c.Endpoint()).Msgf("API: %s", c.Endpoint())

	orchestrator := batch.New(c, plan.layout.Store(), plan.layout.Raw(), batch.Config{
		BatchSize: o.Config.Fetch.BatchSize,
		Interval:  interval,
	}, logger)

	summary, err := orchestrator.Run(ctx, plan.ids)
	if stats := c.Pacer().Stats(); stats.Calls > 0 {
		fmt.Fprintf(o.Out, "\nRequests: %d (average pacing wait %s)\n", stats.Calls, stats.AverageWait().Round(time.Millisecond))
	}
	if summary != nil && summary.Interrupted {
		fmt.Fprintf(o.Out, "\nInterrupted. Progress saved; resume with: series-fetcher fetch --run %s\n", plan.layout.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("fetch run %s: %w", plan.layout.ID, err)
	}

	fmt.Fprintf(o.Out, "\nOutput: %s\n", plan.layout.Dir())
	fmt.Fprintf(o.Out, "To export: series-fetcher export --run %s\n", plan.layout.ID)
	return nil
}

// plan resolves the run and its worklist. A resumed run uses --input or
// --series when given and falls back to its run_config.json otherwise.
func (o *FetchOptions) plan() (*fetchPlan, error) {
	layout, isNew, err := run.Resolve(o.OutputRoot(), o.RunName, o.now())
	if err != nil {
		return nil, err
	}
	p := &fetchPlan{layout: layout, isNew: isNew}

	if isNew {
		cfg, err := run.NewConfig(layout.ID, o.now(), o.Input, o.Column, o.seriesIDs, o.Limit, o.Config.API.URL)
		if err != nil {
			return nil, err
		}
		p.runConfig = cfg
		p.source = cfg.InputSource
		if p.ids, err = cfg.Worklist(); err != nil {
			return nil, err
		}
		return p, nil
	}

	switch {
	case len(o.seriesIDs) > 0:
		if err := worklist.Validate(o.seriesIDs); err != nil {
			return nil, err
		}
		p.source = run.InputExplicit
		p.ids = worklist.Limit(o.seriesIDs, o.Limit)
	case o.Input != "":
		p.source = o.Input
		ids, err := worklist.FromCSV(o.Input, o.Column)
		if err != nil {
			return nil, err
		}
		p.ids = worklist.Limit(ids, o.Limit)
	default:
		cfg, err := run.LoadConfig(layout)
		if errors.Is(err, run.ErrNoConfig) {
			return nil, fmt.Errorf("%w: run %s has no run config", run.ErrNoInput, layout.ID)
		}
		if err != nil {
			return nil, err
		}
		p.runConfig = cfg
		p.source = cfg.InputSource
		if p.ids, err = cfg.Worklist(); err != nil {
			return nil, err
		}
		p.ids = worklist.Limit(p.ids, o.Limit)
	}
	return p, nil
}

func (o *FetchOptions) preview(p *fetchPlan, interval time.Duration) {
	w := o.Out
	mode := "resume"
	if p.isNew {
		mode = "new"
	}

	t := newTable(w)
	t.SetTitle("GRID Data Fetcher - Run Preview")
	t.AppendRow(table.Row{"Run ID", fmt.Sprintf("%s (%s)", p.layout.ID, mode)})
	t.AppendRow(table.Row{"Output", p.layout.Dir()})
	t.AppendRow(table.Row{"Data Source", p.source})
	t.AppendRow(table.Row{"Series Count", len(p.ids)})
	t.AppendRow(table.Row{"Estimated Time", estimateText(len(p.ids), interval)})
	t.Render()

	tree := newTree()
	tree.AppendItem(p.layout.Dir() + string(filepath.Separator))
	tree.Indent()
	tree.AppendItem(run.ConfigFileName)
	tree.AppendItem(progress.FileName)
	tree.AppendItem(run.LogFileName)
	tree.AppendItem(run.RawDirName + "/series_<id>.json")
	tree.AppendItem(run.ExportDirName + "/")
	fmt.Fprintln(w, "\nOutput structure:")
	fmt.Fprintln(w, tree.Render())

	fmt.Fprintln(w, "\nOptions:")
	fmt.Fprintf(w, "  batch size:  %d\n", o.Config.Fetch.BatchSize)
	fmt.Fprintf(w, "  rate limit:  %d requests/min\n", o.Config.API.RateLimit)
	if o.Limit > 0 {
		fmt.Fprintf(w, "  limit:       %d\n", o.Limit)
	}
	if o.MetricsAddr != "" {
		fmt.Fprintf(w, "  metrics:     %s\n", o.MetricsAddr)
	}
}
