package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the optimizer over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			return c.app.Serve(cmd.Context(), addr)
		},
	}
	cmd.Flags().String("addr", ":8080", "Address to listen on")
	return cmd
}
