// Package cli implements the series-fetcher commands.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand assembles every series-fetcher command.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "series-fetcher [command] [flags]",
		Short: "series-fetcher downloads GRID League of Legends series and exports them as tables.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage: true,
	}
	cmd.AddCommand(NewCmdFetch())
	cmd.AddCommand(NewCmdStatus())
	cmd.AddCommand(NewCmdExport())
	cmd.AddCommand(NewCmdReset())
	cmd.AddCommand(NewCmdRuns())
	cmd.AddCommand(NewCmdChampions())

	return cmd
}
