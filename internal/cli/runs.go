package cli

import (
	"context"
	"fmt"

	"github.com/Sternrassler/lol-series-fetcher/pkg/run"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type RunsOptions struct {
	GlobalOptions
}

func DefaultRunsOptions() *RunsOptions {
	return &RunsOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdRuns() *cobra.Command {
	o := DefaultRunsOptions()
	cmd := &cobra.Command{
		Use:     "runs",
		Aliases: []string{"list-runs"},
		Short:   "List runs in the output directory, newest first.",
		Args:    cobra.NoArgs,
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

func (o *RunsOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
}

func (o *RunsOptions) Run(ctx context.Context, args []string) error {
	runs, err := run.List(o.OutputRoot())
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(o.Out, "No runs found.")
		return nil
	}

	t := newTable(o.Out)
	t.SetTitle(fmt.Sprintf("Available Runs (%d)", len(runs)))
	t.AppendHeader(table.Row{"Run ID", "Created", "Completed", "Failed", "Last Updated"})
	for _, r := range runs {
		t.AppendRow(table.Row{r.ID, formatTime(r.CreatedAt), r.Completed, r.Failed, formatTime(r.LastUpdated)})
	}
	t.Render()

	fmt.Fprintf(o.Out, "\nOutput directory: %s\n", o.OutputRoot())
	return nil
}
