package main

import (
	"fmt"
	"os"
	"time"

	yamlstate "github.com/piforge/piforge/internal/adapters/runstate"

	"github.com/piforge/piforge/internal/adapters/command"
	"github.com/piforge/piforge/internal/adapters/docker"
	"github.com/piforge/piforge/internal/adapters/filesystem"
	"github.com/piforge/piforge/internal/adapters/logging"
	"github.com/piforge/piforge/internal/adapters/netprobe"
	"github.com/piforge/piforge/internal/adapters/prompt"
	"github.com/piforge/piforge/internal/config"
	"github.com/piforge/piforge/internal/domain/backup"
	"github.com/piforge/piforge/internal/domain/confedit"
	"github.com/piforge/piforge/internal/domain/conflict"
	"github.com/piforge/piforge/internal/domain/orchestrator"
	"github.com/piforge/piforge/internal/domain/prereq"
	"github.com/piforge/piforge/internal/domain/provision"
	"github.com/piforge/piforge/internal/domain/validate"
	"github.com/piforge/piforge/internal/installers"
	"github.com/piforge/piforge/internal/ports"
	"github.com/piforge/piforge/internal/report"
	"github.com/spf13/cobra"
)

var (
	autoFlag   bool
	rebootFlag bool
	dryRunFlag bool
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Run all enabled provisioning phases",
	Long: `Provision runs every enabled phase in dependency order: foundation
first, then the feature phases. Phases completed by an earlier run are
skipped, so re-invoking after a failure or a reboot resumes where the
last run stopped.

Exit codes: 0 on success, 1 on failure, 3 when a boot configuration
change needs a reboot before the setup is effective.`,
	Args: cobra.NoArgs,
	RunE: runProvision,
}

func init() {
	provisionCmd.Flags().BoolVar(&autoFlag, "auto", false, "unattended mode: never prompt, abort on conflicts")
	provisionCmd.Flags().BoolVar(&rebootFlag, "reboot", false, "reboot automatically when boot config changed")
	provisionCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "log steps without running them")

	rootCmd.AddCommand(provisionCmd)
}

func runProvision(cmd *cobra.Command, _ []string) error {
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
	paths := cfg.Paths()

	level := ports.LevelInfo
	if verbose {
		level = ports.LevelDebug
	}
	console := logging.NewConsoleLogger(
		logging.WithOutput(cmd.ErrOrStderr()),
		logging.WithLevel(level),
	)

	runLog, err := logging.OpenRunLog(cfg.LogsDir, time.Now())
	if err != nil {
		return err
	}
	defer func() { _ = runLog.Close() }()
	log := logging.Tee(console, runLog)

	runner := command.NewRealRunner()
	fs := filesystem.NewRealFileSystem()
	store := backup.NewFileStore(paths.BackupsDir)
	mutator := confedit.NewMutator(fs, store, log)

	var prompter ports.Prompter = prompt.NewTerminalPrompter(os.Stdin, cmd.OutOrStdout())
	if autoFlag {
		prompter = prompt.NewDeclineAll()
	}
	resolver := conflict.NewResolver(
		netprobe.NewSSProber(runner),
		netprobe.NewKillTerminator(runner),
		docker.NewCLIRuntime(runner),
		prompter,
		log,
	)
	validator := validate.NewValidator(validate.NewSystemProbes(runner), log)

	graph := provision.NewGraph()
	for _, phase := range installers.Phases(installers.Deps{
		Runner:    runner,
		FS:        fs,
		Mutator:   mutator,
		Resolver:  resolver,
		Validator: validator,
		Config:    cfg,
		Preset:    preset,
	}) {
		if err := graph.Add(phase); err != nil {
			return err
		}
	}

	orch := orchestrator.New(
		graph,
		orchestrator.NewPhaseExecutor(log),
		prereq.NewChecker(runner, fs, log),
		yamlstate.NewYAMLRepository(),
		runner,
		log,
		orchestrator.Options{
			AutoReboot:   rebootFlag || cfg.AutoReboot,
			Interactive:  !autoFlag,
			DryRun:       dryRunFlag,
			RunStatePath: paths.RunStateFile,
			StateDir:     paths.StateDir,
			Paths:        paths,
		},
	)

	summary, code := orch.Run(cmd.Context())
	report.Print(cmd.OutOrStdout(), summary)
	fmt.Fprintf(cmd.OutOrStdout(), "\nRun log: %s\n", runLog.Path())

	exitCode = int(code)
	return nil
}
