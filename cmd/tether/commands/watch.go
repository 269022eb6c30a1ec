package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print every binding update and follow edits to the documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			scene, bindings := c.paths(cmd)
			return c.app.Watch(cmd.Context(), scene, bindings, cmd.OutOrStdout())
		},
	}
}
