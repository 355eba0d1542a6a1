package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.trai.ch/pareto/internal/adapters/detector"
	"go.trai.ch/pareto/internal/app"
)

func (c *CLI) newOptimizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "optimize [plan-file]",
		Short: "Compute the Pareto frontier of a plan",
		Long: "Builds candidate schedules for every configured strategy variant, scores them " +
			"against the plan objectives and prints the non-dominated schedules.\n\n" +
			"Without arguments the nearest pareto.yaml above the working directory is used.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()

			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			planName, _ := flags.GetString("plan")
			noCache, _ := flags.GetBool("no-cache")
			timings, _ := flags.GetBool("timings")
			watch, _ := flags.GetBool("watch")
			formatName, _ := flags.GetString("format")

			format, err := detector.ParseFormat(formatName)
			if err != nil {
				return err
			}

			return c.app.Run(cmd.Context(), app.RunOptions{
				Path:     path,
				PlanName: planName,
				NoCache:  noCache,
				Format:   format,
				Override: overridesFromFlags(flags),
				Timings:  timings,
				Watch:    watch,
			})
		},
	}
	cmd.Flags().String("plan", "", "Optimize a plan stored in the repository instead of a file")
	cmd.Flags().Int64("seed", 0, "Seed for randomized strategies")
	cmd.Flags().Int("restarts", 1, "Restarts per randomized strategy")
	cmd.Flags().Bool("parallel", false, "Allow tasks to run on several tracks at once")
	cmd.Flags().Int("tracks", 0, "Number of parallel tracks (0 means unbounded)")
	cmd.Flags().Int64("horizon", 0, "Reject schedules ending after this time (0 means unbounded)")
	cmd.Flags().Int("workers", 0, "Strategy variants constructed concurrently (0 means one per CPU)")
	cmd.Flags().BoolP("no-cache", "n", false, "Bypass the result cache and force optimization")
	cmd.Flags().StringP("format", "o", "auto", "Output format: auto, table, text, or json")
	cmd.Flags().Bool("timings", false, "Log the construction time of every strategy variant")
	cmd.Flags().BoolP("watch", "w", false, "Optimize again whenever the plan file changes")
	return cmd
}

// overridesFromFlags sets an override only for flags given on the command line.
func overridesFromFlags(flags *pflag.FlagSet) app.Overrides {
	var o app.Overrides
	if flags.Changed("seed") {
		v, _ := flags.GetInt64("seed")
		o.Seed = &v
	}
	if flags.Changed("restarts") {
		v, _ := flags.GetInt("restarts")
		o.Restarts = &v
	}
	if flags.Changed("parallel") {
		v, _ := flags.GetBool("parallel")
		o.Parallel = &v
	}
	if flags.Changed("tracks") {
		v, _ := flags.GetInt("tracks")
		o.Tracks = &v
	}
	if flags.Changed("horizon") {
		v, _ := flags.GetInt64("horizon")
		o.Horizon = &v
	}
	if flags.Changed("workers") {
		v, _ := flags.GetInt("workers")
		o.Workers = &v
	}
	return o
}
