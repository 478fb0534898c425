package cli

import (
	"context"
	"fmt"

	"github.com/Sternrassler/lol-series-fetcher/pkg/run"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type ResetOptions struct {
	GlobalOptions

	RunName string
	Yes     bool
	DryRun  bool
}

func DefaultResetOptions() *ResetOptions {
	return &ResetOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdReset() *cobra.Command {
	o := DefaultResetOptions()
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete a run with its progress, log, raw payloads and exports.",
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

func (o *ResetOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVarP(&o.RunName, "run", "r", o.RunName, "Run name or \"latest\"")
	fs.BoolVarP(&o.Yes, "yes", "y", o.Yes, "Skip the confirmation prompt")
	fs.BoolVar(&o.DryRun, "dry-run", o.DryRun, "Show what would be deleted and exit")
}

func (o *ResetOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	if o.RunName == "" {
		return run.ErrRunRequired
	}
	return nil
}

func (o *ResetOptions) Run(ctx context.Context, args []string) error {
	layout, err := run.Open(o.OutputRoot(), o.RunName)
	if err != nil {
		return err
	}
	inv, err := run.Inspect(layout)
	if err != nil {
		return err
	}

	t := newTable(o.Out)
	t.SetTitle("Reset Run: " + layout.ID)
	t.AppendRow(table.Row{"Path", inv.Path})
	t.AppendRow(table.Row{"Raw series files", inv.RawFiles})
	t.AppendRow(table.Row{"CSV exports", inv.ExportFiles})
	t.AppendRow(table.Row{"Progress file", yesNo(inv.HasProgress)})
	t.AppendRow(table.Row{"Log file", yesNo(inv.HasLog)})
	t.Render()
	fmt.Fprintln(o.Out, "\nWARNING: This will permanently delete all data for this run. This cannot be undone!")

	if o.DryRun {
		fmt.Fprintln(o.Out, "\nDry run - no changes made.")
		return nil
	}
	if !o.Yes && !confirm(o.In, o.Out, "Delete this run") {
		fmt.Fprintln(o.Out, "Aborted. Run not deleted.")
		return nil
	}

	if err := run.Reset(layout); err != nil {
		return err
	}
	o.Logger.Info().Str("run_id", layout.ID).Msg("Run deleted")
	fmt.Fprintf(o.Out, "Run %s deleted.\n", layout.ID)
	return nil
}
