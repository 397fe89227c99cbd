package provision

import (
	"context"

	"github.com/piforge/piforge/internal/ports"
)

// Paths holds the filesystem locations a run works against. Tests point
// these at a temp directory; production points at the real system.
type Paths struct {
	// BootConfig is the boot configuration text file, e.g. /boot/config.txt.
	BootConfig string
	// StateDir holds run state and the backup store.
	StateDir string
	// LogsDir holds the append-only run logs.
	LogsDir string
	// RunStateFile persists per-phase completion.
	RunStateFile string
	// BackupsDir holds timestamped pre-mutation backups.
	BackupsDir string
}

// Reporter receives capability downgrades from steps. A validation
// timeout is not fatal; the step reports the capability as unverified
// and the phase carries on.
type Reporter interface {
	ReportUnverified(capability, reason string)
}

// RunContext carries everything a step needs, passed explicitly through
// orchestrator, executor and installers instead of ambient globals.
type RunContext struct {
	ctx         context.Context
	logger      ports.Logger
	paths       Paths
	reporter    Reporter
	interactive bool
	dryRun      bool
}

// NewRunContext creates a RunContext wrapping ctx.
func NewRunContext(ctx context.Context) RunContext {
	return RunContext{ctx: ctx}
}

// Context returns the underlying context.Context.
func (r RunContext) Context() context.Context {
	return r.ctx
}

// Logger returns the run logger. The orchestrator always sets one.
func (r RunContext) Logger() ports.Logger {
	return r.logger
}

// Paths returns the run's filesystem locations.
func (r RunContext) Paths() Paths {
	return r.paths
}

// Interactive reports whether an operator is present to answer prompts.
func (r RunContext) Interactive() bool {
	return r.interactive
}

// DryRun reports whether mutations should be simulated.
func (r RunContext) DryRun() bool {
	return r.dryRun
}

// ReportUnverified forwards a capability downgrade to the executor's
// recorder. Safe to call when no reporter is set.
func (r RunContext) ReportUnverified(capability, reason string) {
	if r.reporter != nil {
		r.reporter.ReportUnverified(capability, reason)
	}
}

// WithReporter returns a RunContext with the reporter set.
func (r RunContext) WithReporter(reporter Reporter) RunContext {
	r.reporter = reporter
	return r
}

// WithLogger returns a RunContext with the logger set.
func (r RunContext) WithLogger(logger ports.Logger) RunContext {
	r.logger = logger
	return r
}

// WithPaths returns a RunContext with paths set.
func (r RunContext) WithPaths(paths Paths) RunContext {
	r.paths = paths
	return r
}

// WithInteractive returns a RunContext with the interactive flag set.
func (r RunContext) WithInteractive(interactive bool) RunContext {
	r.interactive = interactive
	return r
}

// WithDryRun returns a RunContext with the dry-run flag set.
func (r RunContext) WithDryRun(dryRun bool) RunContext {
	r.dryRun = dryRun
	return r
}
