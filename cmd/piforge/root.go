package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/piforge/piforge/internal/domain/provision"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile     string
	presetsFile string
	verbose     bool
)

// exitCode is set by commands that finish with a non-default status,
// such as a provisioning run that needs a reboot.
var exitCode int

var rootCmd = &cobra.Command{
	Use:   "piforge",
	Short: "Single-board computer appliance provisioner",
	Long: `Piforge turns a freshly imaged single-board computer into a configured
appliance: gaming frontend, home automation hub, media center and network
file share, in one idempotent run.

Re-running is always safe. Completed phases are skipped, configuration
files are patched inside owned marker blocks, and every mutated file is
backed up first.`,
	SilenceErrors: true, // We handle error formatting ourselves
	SilenceUsage:  true, // Don't show usage on error
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		printError(err)
		return 1
	}
	return exitCode
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "/etc/piforge/config.yaml", "configuration file")
	rootCmd.PersistentFlags().StringVar(&presetsFile, "presets", "/etc/piforge/presets.toml", "tuning presets file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(versionCmd)
}

// printError prints an error to stderr, using the provisioning error
// format when available.
func printError(err error) {
	printErrorTo(os.Stderr, err)
}

func printErrorTo(w io.Writer, err error) {
	var perr *provision.Error
	if errors.As(err, &perr) {
		_, _ = fmt.Fprintln(w, perr.Format())
		return
	}
	_, _ = fmt.Fprintf(w, "Error: %s\n", err)
}
