package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/solmere/tilescout/internal/config"
	"github.com/solmere/tilescout/internal/engine"
)

// newPresetsCmd creates the presets command.
func newPresetsCmd() *cobra.Command {
	var configPath string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List the available scoring presets",
		Long: `List the scoring presets the search can run with.

A preset controls how strongly requirement coverage dominates the
score relative to priority and preferred coverage. Built-in presets
are balanced, strict and lenient; a config file can add more.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			presets := engine.BuiltinPresets()
			active := engine.DefaultPreset().Name

			if configPath != "" {
				cfg, err := config.Load(configPath)
				if err != nil {
					return cliError(cmd, err)
				}
				presets = cfg.Presets
				active = cfg.Engine.Preset
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(presets)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tKAPPA SCALE\tKAPPA MIN\tKAPPA MAX\t")
			for _, p := range presets {
				marker := ""
				if p.Name == active {
					marker = " (active)"
				}
				fmt.Fprintf(w, "%s%s\t%.2f\t%.2f\t%.2f\t\n", p.Name, marker, p.KappaScale, p.KappaMin, p.KappaMax)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file to read presets from")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output presets as JSON")

	return cmd
}
