package main

import (
	"fmt"

	"github.com/piforge/piforge/internal/config"
	"github.com/piforge/piforge/internal/domain/backup"
	"github.com/spf13/cobra"
)

var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "List pre-mutation configuration backups",
	Long: `Backups lists every configuration file snapshot taken before a
mutation, oldest first. Backups are never deleted automatically; to
recover a file, print a backup with 'backups show' and restore it
manually.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		store := backup.NewFileStore(cfg.Paths().BackupsDir)

		all, err := store.ListAll(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(all) == 0 {
			fmt.Fprintln(out, "No backups recorded.")
			return nil
		}
		for _, b := range all {
			fmt.Fprintf(out, "%s  %s  %6d B  %s\n",
				b.ID, b.CreatedAt.Format("2006-01-02 15:04:05"), b.Size, b.Path)
		}
		return nil
	},
}

var backupsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print the content of one backup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		store := backup.NewFileStore(cfg.Paths().BackupsDir)

		content, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(content)
		return err
	},
}

func init() {
	backupsCmd.AddCommand(backupsShowCmd)
	rootCmd.AddCommand(backupsCmd)
}
