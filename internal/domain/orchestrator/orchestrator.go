package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/statekit"
	"github.com/piforge/piforge/internal/domain/prereq"
	"github.com/piforge/piforge/internal/domain/provision"
	"github.com/piforge/piforge/internal/domain/runstate"
	"github.com/piforge/piforge/internal/ports"
)

// ExitCode is the process exit status of a provisioning run.
type ExitCode int

// Exit codes.
const (
	// ExitOK means every phase succeeded or was already complete.
	ExitOK ExitCode = 0
	// ExitFailure means a prerequisite or phase failed.
	ExitFailure ExitCode = 1
	// ExitRebootRequired means the run succeeded so far but a boot
	// configuration change needs a reboot; re-invoke afterwards to
	// resume with completed phases skipped.
	ExitRebootRequired ExitCode = 3
)

// State values of the orchestrator machine.
type State string

// Orchestrator states.
const (
	StateIdle           State = "idle"
	StateValidating     State = "validating-prerequisites"
	StateRunningPhases  State = "running-phases"
	StateAwaitingReboot State = "awaiting-reboot"
	StateComplete       State = "complete"
	StateAborted        State = "aborted"
)

// Events driving the orchestrator machine.
const (
	eventStart          = "START"
	eventPrereqsOK      = "PREREQS_OK"
	eventPrereqFailed   = "PREREQ_FAILED"
	eventPhaseFailed    = "PHASE_FAILED"
	eventPhasesDone     = "PHASES_DONE"
	eventRebootRequired = "REBOOT_REQUIRED"
)

// machineContext is the statekit context type. The machine only tracks
// position; run data lives in the summary.
type machineContext struct{}

// Options configure an Orchestrator.
type Options struct {
	// AutoReboot invokes the reboot command itself instead of exiting
	// with ExitRebootRequired.
	AutoReboot bool
	// Interactive enables operator prompts during conflict resolution.
	Interactive bool
	// DryRun logs each step instead of running it. Nothing is mutated
	// and no completion is persisted.
	DryRun bool
	// RunStatePath is where phase completion is persisted.
	RunStatePath string
	// StateDir is checked for free disk space.
	StateDir string
	// Paths is handed to every step through the RunContext.
	Paths provision.Paths
}

// Orchestrator runs phases in dependency order with re-entrant skip,
// prerequisite gating and reboot bookkeeping.
type Orchestrator struct {
	graph    *provision.Graph
	executor *PhaseExecutor
	checker  *prereq.Checker
	states   runstate.Repository
	runner   ports.CommandRunner
	logger   ports.Logger
	opts     Options
	now      func() time.Time

	interp *statekit.Interpreter[machineContext]
}

// New creates an Orchestrator.
func New(graph *provision.Graph, executor *PhaseExecutor, checker *prereq.Checker,
	states runstate.Repository, runner ports.CommandRunner, logger ports.Logger, opts Options,
) *Orchestrator {
	return &Orchestrator{
		graph:    graph,
		executor: executor,
		checker:  checker,
		states:   states,
		runner:   runner,
		logger:   logger,
		opts:     opts,
		now:      time.Now,
	}
}

// WithClock overrides the time source. Tests use this.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// State returns the machine's current state.
func (o *Orchestrator) State() State {
	if o.interp == nil {
		return StateIdle
	}
	return State(o.interp.State().Value)
}

func buildMachine() (*statekit.Interpreter[machineContext], error) {
	machine, err := statekit.NewMachine[machineContext]("provision-run").
		WithInitial(statekit.StateID(StateIdle)).
		WithContext(machineContext{}).
		State(statekit.StateID(StateIdle)).
		On(eventStart).Target(statekit.StateID(StateValidating)).Done().
		State(statekit.StateID(StateValidating)).
		On(eventPrereqsOK).Target(statekit.StateID(StateRunningPhases)).
		On(eventPrereqFailed).Target(statekit.StateID(StateAborted)).Done().
		State(statekit.StateID(StateRunningPhases)).
		On(eventPhasesDone).Target(statekit.StateID(StateComplete)).
		On(eventRebootRequired).Target(statekit.StateID(StateAwaitingReboot)).
		On(eventPhaseFailed).Target(statekit.StateID(StateAborted)).Done().
		State(statekit.StateID(StateAwaitingReboot)).Done().
		State(statekit.StateID(StateComplete)).Done().
		State(statekit.StateID(StateAborted)).Done().
		Build()
	if err != nil {
		return nil, err
	}
	return statekit.NewInterpreter(machine), nil
}

// Run executes the provisioning run end to end and returns its summary
// and exit code. Phases already marked succeeded in run state are
// skipped; a fatal phase failure halts before any dependent phase runs.
func (o *Orchestrator) Run(ctx context.Context) (*RunSummary, ExitCode) {
	summary := &RunSummary{StartedAt: o.now()}

	interp, err := buildMachine()
	if err != nil {
		summary.Fatal = fmt.Errorf("build state machine: %w", err)
		summary.FinishedAt = o.now()
		return summary, ExitFailure
	}
	o.interp = interp
	o.interp.Start()
	defer o.interp.Stop()

	o.interp.Send(statekit.Event{Type: eventStart})

	phases, err := o.orderedPhases()
	if err != nil {
		o.interp.Send(statekit.Event{Type: eventPrereqFailed})
		summary.Fatal = err
		summary.FinishedAt = o.now()
		return summary, ExitFailure
	}

	// Prerequisite gate. A failure here has mutated nothing.
	checks, err := o.checker.Check(ctx, phases, o.opts.StateDir)
	summary.Prerequisites = checks
	if err != nil {
		o.interp.Send(statekit.Event{Type: eventPrereqFailed})
		summary.Fatal = err
		summary.FinishedAt = o.now()
		return summary, ExitFailure
	}
	o.interp.Send(statekit.Event{Type: eventPrereqsOK})

	state, err := o.loadState(ctx)
	if err != nil {
		o.interp.Send(statekit.Event{Type: eventPhaseFailed})
		summary.Fatal = err
		summary.FinishedAt = o.now()
		return summary, ExitFailure
	}

	runCtx := provision.NewRunContext(ctx).
		WithLogger(o.logger).
		WithPaths(o.opts.Paths).
		WithInteractive(o.opts.Interactive).
		WithDryRun(o.opts.DryRun)

	rebootRequired := false
	for _, phase := range phases {
		if state.IsCompleted(phase.Name) {
			o.logger.Info(ctx, "phase already complete, skipping", ports.F("phase", phase.Name))
			summary.Phases = append(summary.Phases, PhaseResult{
				Phase:  phase.Name,
				Status: provision.StatusSkipped,
			})
			continue
		}

		result := o.executor.Execute(runCtx, phase)
		summary.Phases = append(summary.Phases, result)

		if result.Status == provision.StatusFailed {
			// Dependent phases are never invoked.
			o.interp.Send(statekit.Event{Type: eventPhaseFailed})
			summary.Fatal = result.FatalCause
			summary.FinishedAt = o.now()
			return summary, failureExit(result.FatalCause)
		}

		if !o.opts.DryRun {
			state.MarkSucceeded(phase.Name, o.now())
			if err := o.states.Save(ctx, o.opts.RunStatePath, state); err != nil {
				o.interp.Send(statekit.Event{Type: eventPhaseFailed})
				summary.Fatal = fmt.Errorf("%w: %w", runstate.ErrSaveFailed, err)
				summary.FinishedAt = o.now()
				return summary, ExitFailure
			}
		}

		if phase.MutatesBootConfig {
			rebootRequired = true
		}
	}

	summary.FinishedAt = o.now()

	if rebootRequired && !o.opts.DryRun {
		o.interp.Send(statekit.Event{Type: eventRebootRequired})
		summary.RebootRequired = true
		if o.opts.AutoReboot {
			o.logger.Info(ctx, "boot configuration changed, rebooting now")
			if _, err := o.runner.Run(ctx, "systemctl", "reboot"); err != nil {
				summary.Fatal = fmt.Errorf("reboot: %w", err)
				return summary, ExitFailure
			}
		} else {
			o.logger.Info(ctx, "boot configuration changed, reboot and re-run to continue")
		}
		return summary, ExitRebootRequired
	}

	o.interp.Send(statekit.Event{Type: eventPhasesDone})
	return summary, ExitOK
}

// failureExit maps a fatal phase cause to the process exit status. A
// failed external tool's exit code propagates verbatim; everything
// else is the generic failure code.
func failureExit(err error) ExitCode {
	var perr *provision.Error
	if errors.As(err, &perr) && perr.ExitCode > 0 {
		return ExitCode(perr.ExitCode)
	}
	return ExitFailure
}

// orderedPhases validates the graph and returns phases in dependency order.
func (o *Orchestrator) orderedPhases() ([]provision.Phase, error) {
	if err := o.graph.Validate(); err != nil {
		return nil, provision.NewPrerequisiteError("invalid phase graph", err)
	}
	phases, err := o.graph.TopologicalSort()
	if err != nil {
		return nil, provision.NewPrerequisiteError("invalid phase graph", err)
	}
	return phases, nil
}

// loadState loads the persisted run state, creating a fresh one on the
// first invocation.
func (o *Orchestrator) loadState(ctx context.Context) (*runstate.RunState, error) {
	state, err := o.states.Load(ctx, o.opts.RunStatePath)
	if err == nil {
		return state, nil
	}
	if errors.Is(err, runstate.ErrNotFound) {
		return runstate.New(o.now()), nil
	}
	return nil, fmt.Errorf("load run state: %w", err)
}
