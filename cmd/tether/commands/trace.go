package commands

import (
	"context"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.trai.ch/tether/internal/adapters/telemetry"
)

// setup applies the persistent flags before any command runs.
func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		if l, ok := c.logger.(jsonLogger); ok {
			l.SetJSON(true)
		}
	}

	trace, _ := cmd.Flags().GetBool("trace")
	if !trace || c.logger == nil {
		return nil
	}

	// Tracers handed out before this point delegate to the global provider.
	tp := telemetry.NewProvider(telemetry.NewLogBridge(c.logger))
	otel.SetTracerProvider(tp)
	cmd.PostRunE = func(*cobra.Command, []string) error {
		return tp.Shutdown(context.WithoutCancel(cmd.Context()))
	}
	return nil
}
