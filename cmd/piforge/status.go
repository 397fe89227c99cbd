package main

import (
	"errors"
	"fmt"
	"os"
	"sort"

	yamlstate "github.com/piforge/piforge/internal/adapters/runstate"

	"github.com/piforge/piforge/internal/config"
	"github.com/piforge/piforge/internal/domain/runstate"
	"github.com/spf13/cobra"
)

var resetFlag bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which phases completed in earlier runs",
	Long: `Status reads the persisted run state and lists completed phases.
With --reset the run state is deleted, so the next provisioning run
re-executes every phase from scratch. Config files, backups and logs
are left alone.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		paths := cfg.Paths()

		if resetFlag {
			if err := os.Remove(paths.RunStateFile); err != nil && !os.IsNotExist(err) {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Run state cleared; the next run starts from scratch.")
			return nil
		}

		state, err := yamlstate.NewYAMLRepository().Load(cmd.Context(), paths.RunStateFile)
		if errors.Is(err, runstate.ErrNotFound) {
			fmt.Fprintln(cmd.OutOrStdout(), "No run state: provisioning has not completed any phase yet.")
			return nil
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		records := make([]runstate.CompletionRecord, 0, len(state.Completed))
		for _, rec := range state.Completed {
			records = append(records, rec)
		}
		sort.Slice(records, func(i, j int) bool {
			return records[i].CompletedAt.Before(records[j].CompletedAt)
		})

		fmt.Fprintf(out, "Run state from %s (last update %s)\n",
			state.CreatedAt.Format("2006-01-02 15:04:05"),
			state.UpdatedAt.Format("2006-01-02 15:04:05"))
		for _, rec := range records {
			fmt.Fprintf(out, "  %-14s completed %s\n",
				rec.Phase, rec.CompletedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&resetFlag, "reset", false, "delete run state so the next run starts from scratch")
	rootCmd.AddCommand(statusCmd)
}
