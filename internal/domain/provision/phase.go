// Package provision defines the phase and step model for a provisioning run.
package provision

// FailurePolicy controls how a step's error affects its phase.
type FailurePolicy string

const (
	// FailFast aborts the phase on the first error.
	FailFast FailurePolicy = "fail-fast"
	// BestEffort records the error as a warning and continues.
	BestEffort FailurePolicy = "best-effort"
)

// PhaseStatus represents the lifecycle state of a phase.
type PhaseStatus string

const (
	// StatusPending indicates the phase has not started.
	StatusPending PhaseStatus = "pending"
	// StatusRunning indicates the phase is executing.
	StatusRunning PhaseStatus = "running"
	// StatusSucceeded indicates all steps completed (warnings allowed).
	StatusSucceeded PhaseStatus = "succeeded"
	// StatusFailed indicates a fail-fast step errored.
	StatusFailed PhaseStatus = "failed"
	// StatusSkipped indicates the phase succeeded in a prior run.
	StatusSkipped PhaseStatus = "skipped"
)

// TerminalSuccess reports whether the status satisfies downstream
// dependency checks. Skipped counts: it means succeeded in a prior run.
func (s PhaseStatus) TerminalSuccess() bool {
	return s == StatusSucceeded || s == StatusSkipped
}

// Step is a single action within a phase.
type Step struct {
	// ID names the step within its phase, e.g. "packages:kodi".
	ID string
	// Description is shown in logs and the run summary.
	Description string
	// Policy decides whether an error aborts the phase or becomes a warning.
	Policy FailurePolicy
	// Run performs the action. It must be idempotent: the orchestrator may
	// re-run a phase after a crash.
	Run func(ctx RunContext) error
}

// Phase is a named, dependency-ordered unit of provisioning work.
type Phase struct {
	Name        string
	Description string
	// DependsOn lists phases that must have succeeded (this run or a
	// prior one) before this phase may start.
	DependsOn []string
	// MutatesBootConfig marks phases whose changes only take effect
	// after a reboot. Running one makes the whole run reboot-required.
	MutatesBootConfig bool
	Steps             []Step
}
