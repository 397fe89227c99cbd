package main

import (
	"fmt"

	"github.com/piforge/piforge/internal/adapters/command"
	"github.com/piforge/piforge/internal/adapters/filesystem"
	"github.com/piforge/piforge/internal/adapters/logging"
	"github.com/piforge/piforge/internal/config"
	"github.com/piforge/piforge/internal/domain/prereq"
	"github.com/piforge/piforge/internal/installers"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check prerequisites without provisioning anything",
	Long: `Doctor runs the same prerequisite gate a provisioning run starts
with: privilege, network reachability, free disk space and phase
registration. Nothing is mutated.`,
	Args: cobra.NoArgs,
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

		runner := command.NewRealRunner()
		fs := filesystem.NewRealFileSystem()
		checker := prereq.NewChecker(runner, fs, logging.NewNopLogger())

		phases := installers.Phases(installers.Deps{Config: cfg, Preset: preset})
		results, err := checker.Check(cmd.Context(), phases, cfg.StateDir)

		out := cmd.OutOrStdout()
		for _, r := range results {
			mark := "ok  "
			if !r.Passed {
				mark = "FAIL"
			}
			fmt.Fprintf(out, "  %s %-14s %s\n", mark, r.Name, r.Detail)
		}
		if err != nil {
			exitCode = 1
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
