package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"go.trai.ch/tether/internal/app"
)

func (c *CLI) newEvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Attach every binding and print the settled target values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			scene, bindings := c.paths(cmd)
			report, err := c.app.Eval(cmd.Context(), scene, bindings)
			if err != nil {
				return err
			}

			asJSON, _ := cmd.Flags().GetBool("json")
			if asJSON {
				err = writeJSON(cmd.OutOrStdout(), report)
			} else {
				err = writeText(cmd.OutOrStdout(), report)
			}
			if err != nil {
				return err
			}

			if dump, _ := cmd.Flags().GetBool("metrics"); dump && c.metrics != nil {
				return writeMetrics(cmd.ErrOrStderr(), c.metrics)
			}
			return nil
		},
	}
	cmd.Flags().Bool("metrics", false, "Print engine counters after evaluation")
	return cmd
}

func writeJSON(w io.Writer, report app.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func writeText(w io.Writer, report app.Report) error {
	width := 0
	for _, e := range report.Bindings {
		width = max(width, len(e.ID))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "scene %s\n", report.Scene)
	for _, e := range report.Bindings {
		if e.Error != "" {
			fmt.Fprintf(&b, "  %-*s  error: %s\n", width, e.ID, e.Error)
			continue
		}
		fmt.Fprintf(&b, "  %-*s  %s  %s\n", width, e.ID, formatValue(e.Value), e.Mode)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "<unset>"
	case string:
		return fmt.Sprintf("%q", t)
	case map[string]any:
		keys := slices.Sorted(maps.Keys(t))
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + formatValue(t[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprint(t)
	}
}
