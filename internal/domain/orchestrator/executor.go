// Package orchestrator sequences phases in dependency order and runs
// each phase's steps under its failure policy.
package orchestrator

import (
	"errors"
	"time"

	"github.com/piforge/piforge/internal/domain/provision"
	"github.com/piforge/piforge/internal/ports"
)

// Warning records a non-fatal step failure.
type Warning struct {
	Step    string
	Message string
}

// Unverified records a capability whose validation timed out. The phase
// still succeeded; the capability is surfaced in the run summary.
type Unverified struct {
	Capability string
	Reason     string
}

// PhaseResult is the aggregate outcome of executing one phase.
type PhaseResult struct {
	Phase      string
	Status     provision.PhaseStatus
	FatalCause error
	Warnings   []Warning
	Unverified []Unverified
	Duration   time.Duration
}

// Succeeded reports whether the phase counts as done for dependents.
func (r PhaseResult) Succeeded() bool {
	return r.Status.TerminalSuccess()
}

// recorder collects per-phase unverified capabilities from steps via
// the provision.Reporter interface.
type recorder struct {
	unverified []Unverified
}

func (r *recorder) ReportUnverified(capability, reason string) {
	r.unverified = append(r.unverified, Unverified{Capability: capability, Reason: reason})
}

// PhaseExecutor runs one phase's step sequence.
type PhaseExecutor struct {
	logger ports.Logger
}

// NewPhaseExecutor creates a PhaseExecutor.
func NewPhaseExecutor(logger ports.Logger) *PhaseExecutor {
	return &PhaseExecutor{logger: logger}
}

// Execute runs the phase's steps in order.
//
// A FailFast step error aborts the phase and becomes its fatal cause. A
// BestEffort step error becomes a warning and execution continues. Every
// step outcome is logged to the run log.
func (e *PhaseExecutor) Execute(runCtx provision.RunContext, phase provision.Phase) PhaseResult {
	start := time.Now()
	ctx := runCtx.Context()
	log := e.logger.With(ports.F("phase", phase.Name))

	rec := &recorder{}
	runCtx = runCtx.WithReporter(rec)

	result := PhaseResult{Phase: phase.Name, Status: provision.StatusRunning}

	log.Info(ctx, "phase started", ports.F("steps", len(phase.Steps)))

	for _, step := range phase.Steps {
		if err := ctx.Err(); err != nil {
			result.Status = provision.StatusFailed
			result.FatalCause = err
			result.Duration = time.Since(start)
			log.Error(ctx, "phase interrupted", ports.F("step", step.ID))
			return result
		}

		if runCtx.DryRun() {
			log.Info(ctx, "dry-run: would run step",
				ports.F("step", step.ID),
				ports.F("description", step.Description))
			continue
		}

		stepStart := time.Now()
		err := step.Run(runCtx)
		elapsed := time.Since(stepStart)

		if err == nil {
			log.Info(ctx, "step ok",
				ports.F("step", step.ID),
				ports.F("duration", elapsed.Round(time.Millisecond).String()))
			continue
		}

		if step.Policy == provision.BestEffort {
			log.Warn(ctx, "step failed, continuing",
				ports.F("step", step.ID), ports.F("error", err.Error()))
			result.Warnings = append(result.Warnings, Warning{Step: step.ID, Message: err.Error()})
			continue
		}

		log.Error(ctx, "step failed, aborting phase",
			ports.F("step", step.ID), ports.F("error", err.Error()))
		result.Status = provision.StatusFailed
		result.FatalCause = classify(phase.Name, step.ID, err)
		result.Unverified = rec.unverified
		result.Duration = time.Since(start)
		return result
	}

	result.Status = provision.StatusSucceeded
	result.Unverified = rec.unverified
	result.Duration = time.Since(start)
	log.Info(ctx, "phase succeeded",
		ports.F("warnings", len(result.Warnings)),
		ports.F("unverified", len(result.Unverified)),
		ports.F("duration", result.Duration.Round(time.Millisecond).String()))
	return result
}

// classify wraps a raw step error into the provisioning taxonomy,
// preserving errors that are already classified.
func classify(phase, step string, err error) error {
	var perr *provision.Error
	if errors.As(err, &perr) {
		if perr.Phase == "" {
			perr = perr.WithPhase(phase)
		}
		if perr.Step == "" {
			perr = perr.WithStep(step)
		}
		return perr
	}
	return provision.NewStepFailedError(step, err).WithPhase(phase)
}
