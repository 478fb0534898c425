package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sternrassler/lol-series-fetcher/pkg/run"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// maxFailedShown caps the failed series listed by status.
const maxFailedShown = 10

type StatusOptions struct {
	GlobalOptions

	RunName string
}

func DefaultStatusOptions() *StatusOptions {
	return &StatusOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdStatus() *cobra.Command {
	o := DefaultStatusOptions()
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the progress of a run.",
		Args:  cobra.NoArgs,
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

func (o *StatusOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVarP(&o.RunName, "run", "r", o.RunName, "Run name or \"latest\"")
}

func (o *StatusOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	if o.RunName == "" {
		return run.ErrRunRequired
	}
	return nil
}

func (o *StatusOptions) Run(ctx context.Context, args []string) error {
	layout, err := run.Open(o.OutputRoot(), o.RunName)
	if err != nil {
		return err
	}

	cfg, err := run.LoadConfig(layout)
	if err != nil && !errors.Is(err, run.ErrNoConfig) {
		return err
	}
	rec, err := layout.Store().Load()
	if err != nil {
		return err
	}
	inv, err := run.Inspect(layout)
	if err != nil {
		return err
	}
	completed, failed := rec.Counts()

	t := newTable(o.Out)
	t.SetTitle("Run Status: " + layout.ID)
	t.AppendRow(table.Row{"Path", layout.Dir()})
	if cfg != nil {
		t.AppendRow(table.Row{"Created", formatTime(&cfg.CreatedAt)})
		t.AppendRow(table.Row{"Input", cfg.InputSource})
		limit := "none"
		if cfg.Limit != nil {
			limit = fmt.Sprint(*cfg.Limit)
		}
		t.AppendRow(table.Row{"Limit", limit})
	}
	t.AppendRow(table.Row{"Completed", completed})
	t.AppendRow(table.Row{"Failed", failed})
	t.AppendRow(table.Row{"Last update", formatTime(rec.LastUpdated)})
	t.Render()

	if versions := rec.VersionDistribution(); len(versions) > 0 {
		fmt.Fprintln(o.Out, "\nVersion distribution:")
		vt := newTable(o.Out)
		vt.AppendHeader(table.Row{"Version", "Series"})
		for _, v := range versions {
			vt.AppendRow(table.Row{v.Label, v.Count})
		}
		vt.Render()
	}

	if failed > 0 {
		fmt.Fprintln(o.Out, "\nFailed series:")
		ids := rec.FailedIDs()
		for i, id := range ids {
			if i == maxFailedShown {
				fmt.Fprintf(o.Out, "  ... and %d more\n", len(ids)-maxFailedShown)
				break
			}
			fmt.Fprintf(o.Out, "  %s: %s\n", id, rec.Failed[id])
		}
	}

	fmt.Fprintf(o.Out, "\nSeries files saved: %d\n", inv.RawFiles)
	fmt.Fprintf(o.Out, "CSV exports: %d files\n", inv.ExportFiles)
	return nil
}
