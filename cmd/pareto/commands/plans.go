package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newPlansCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plans",
		Short: "Manage plans stored in the plan repository",
	}
	cmd.AddCommand(c.newPlansSaveCmd())
	cmd.AddCommand(c.newPlansListCmd())
	return cmd
}

func (c *CLI) newPlansSaveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save <file>",
		Short: "Store a plan file in the repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			saved, err := c.app.SavePlan(cmd.Context(), args[0], name)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), saved)
			return nil
		},
	}
	cmd.Flags().String("name", "", "Store the plan under this name instead of its own")
	return cmd
}

func (c *CLI) newPlansListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored plans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, err := c.app.ListPlans(cmd.Context())
			if err != nil {
				return err
			}
			for _, name := range names {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
