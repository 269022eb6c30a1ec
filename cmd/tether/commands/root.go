// Package commands implements the CLI commands for tether.
package commands

import (
	"context"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.trai.ch/tether/internal/app"
	"go.trai.ch/tether/internal/build"
	"go.trai.ch/tether/internal/core/ports"
)

// Runner is the application surface the commands drive.
type Runner interface {
	Eval(ctx context.Context, scenePath, bindingsPath string) (app.Report, error)
	Watch(ctx context.Context, scenePath, bindingsPath string, out io.Writer) error
}

// jsonLogger is implemented by loggers that can switch to JSON output.
type jsonLogger interface {
	SetJSON(enable bool)
}

// CLI represents the command line interface for tether.
type CLI struct {
	app     Runner
	logger  ports.Logger
	metrics prometheus.Gatherer
	rootCmd *cobra.Command
}

// Option configures a CLI.
type Option func(*CLI)

// WithLogger sets the logger used for --trace span output and switched by --json.
func WithLogger(l ports.Logger) Option {
	return func(c *CLI) {
		c.logger = l
	}
}

// WithMetrics sets the gatherer dumped by --metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(c *CLI) {
		c.metrics = g
	}
}

// New creates a new CLI instance with the given app.
func New(a Runner, opts ...Option) *CLI {
	rootCmd := &cobra.Command{
		Use:           "tether",
		Short:         "Resolve and synchronize property bindings over a scene",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().StringP("scene", "s", "scene.yaml", "Path to the scene document")
	rootCmd.PersistentFlags().StringP("bindings", "b", "bindings.yaml", "Path to the binding document")
	rootCmd.PersistentFlags().Bool("json", false, "Write reports and logs as JSON")
	rootCmd.PersistentFlags().Bool("trace", false, "Log one line per propagated update")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}
	for _, opt := range opts {
		opt(c)
	}

	rootCmd.PersistentPreRunE = c.setup
	rootCmd.AddCommand(c.newEvalCmd())
	rootCmd.AddCommand(c.newWatchCmd())
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

// SetOutput sets the output and error writers for the root command.
func (c *CLI) SetOutput(out, errOut io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(errOut)
}

func (c *CLI) paths(cmd *cobra.Command) (scene, bindings string) {
	scene, _ = cmd.Flags().GetString("scene")
	bindings, _ = cmd.Flags().GetString("bindings")
	return scene, bindings
}
