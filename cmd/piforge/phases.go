package main

import (
	"fmt"
	"strings"

	"github.com/piforge/piforge/internal/config"
	"github.com/piforge/piforge/internal/domain/provision"
	"github.com/piforge/piforge/internal/installers"
	"github.com/spf13/cobra"
)

var phasesCmd = &cobra.Command{
	Use:   "phases",
	Short: "List enabled phases in execution order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		presets, err := config.LoadPresets(presetsFile)
		if err != nil {
			return err
		}
		preset, err := cfg.ResolvePreset(presets)
		if err != nil {
			return err
		}

		// Listing only constructs the phases; no step ever runs, so the
		// execution dependencies stay unset.
		graph := provision.NewGraph()
		for _, phase := range installers.Phases(installers.Deps{Config: cfg, Preset: preset}) {
			if err := graph.Add(phase); err != nil {
				return err
			}
		}
		ordered, err := graph.TopologicalSort()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, phase := range ordered {
			fmt.Fprintf(out, "%s - %s\n", phase.Name, phase.Description)
			if len(phase.DependsOn) > 0 {
				fmt.Fprintf(out, "  after: %s\n", strings.Join(phase.DependsOn, ", "))
			}
			if phase.MutatesBootConfig {
				fmt.Fprintln(out, "  mutates boot config (reboot required)")
			}
			for _, step := range phase.Steps {
				fmt.Fprintf(out, "  %-24s %s\n", step.ID, step.Description)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(phasesCmd)
}
