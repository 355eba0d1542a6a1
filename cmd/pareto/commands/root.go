// Package commands implements the CLI commands for the pareto schedule optimizer.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/pareto/internal/app"
	"go.trai.ch/pareto/internal/build"
	"go.trai.ch/pareto/internal/core/ports"
)

// CLI represents the command line interface for pareto.
type CLI struct {
	app     Application
	logger  ports.Logger
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Run(ctx context.Context, opts app.RunOptions) error
	SavePlan(ctx context.Context, path, name string) (string, error)
	ListPlans(ctx context.Context) ([]string, error)
	Serve(ctx context.Context, addr string) error
}

// jsonSwitcher is implemented by loggers that can emit JSON records.
type jsonSwitcher interface {
	SetJSON(enable bool)
}

// New creates a new CLI instance with the given app. log may be nil; when it
// supports JSON output the --json-logs flag switches it over.
func New(a Application, log ports.Logger) *CLI {
	rootCmd := &cobra.Command{
		Use:           "pareto",
		Short:         "Multi-objective schedule optimizer",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	c := &CLI{
		app:     a,
		logger:  log,
		rootCmd: rootCmd,
	}

	rootCmd.PersistentFlags().Bool("json-logs", false, "Emit log records as JSON")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		if s, ok := c.logger.(jsonSwitcher); ok && jsonLogs {
			s.SetJSON(true)
		}
	}

	rootCmd.AddCommand(c.newOptimizeCmd())
	rootCmd.AddCommand(c.newPlansCmd())
	rootCmd.AddCommand(c.newServeCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
