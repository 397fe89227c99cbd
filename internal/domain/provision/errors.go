package provision

import (
	"fmt"
	"strings"
)

// Error codes for provisioning failures.
const (
	ErrCodePrerequisite       = "PREREQ_FAILED"
	ErrCodeConfigMutation     = "CONFIG_MUTATION_FAILED"
	ErrCodeConflictUnresolved = "CONFLICT_UNRESOLVED"
	ErrCodeStepFailed         = "STEP_FAILED"
	ErrCodeStatePersistence   = "STATE_PERSISTENCE_FAILED"
)

// Error is a classified provisioning error with enough context for the
// run summary and an actionable suggestion for the operator.
type Error struct {
	Code       string
	Message    string
	Phase      string
	Step       string
	Suggestion string
	Underlying error
	// ExitCode carries a failed external tool's exit status. When a
	// fail-fast step fails with it set, the process exits with this
	// code verbatim instead of the generic failure code.
	ExitCode int
}

// Error returns the formatted error message.
func (e *Error) Error() string {
	var parts []string
	if e.Phase != "" {
		parts = append(parts, fmt.Sprintf("phase %q", e.Phase))
	}
	if e.Step != "" {
		parts = append(parts, fmt.Sprintf("step %q", e.Step))
	}
	if len(parts) > 0 {
		return fmt.Sprintf("%s: %s", strings.Join(parts, ", "), e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error for error chain support.
func (e *Error) Unwrap() error {
	return e.Underlying
}

// Format returns a fully formatted error with all details.
func (e *Error) Format() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))
	if e.Phase != "" {
		b.WriteString(fmt.Sprintf("\n  Phase: %s", e.Phase))
	}
	if e.Step != "" {
		b.WriteString(fmt.Sprintf("\n  Step: %s", e.Step))
	}
	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  Suggestion: %s", e.Suggestion))
	}
	if e.Underlying != nil {
		b.WriteString(fmt.Sprintf("\n  Cause: %s", e.Underlying.Error()))
	}
	return b.String()
}

// WithPhase returns a copy with the phase name set.
func (e *Error) WithPhase(phase string) *Error {
	clone := *e
	clone.Phase = phase
	return &clone
}

// WithStep returns a copy with the step ID set.
func (e *Error) WithStep(step string) *Error {
	clone := *e
	clone.Step = step
	return &clone
}

// NewPrerequisiteError creates a fatal pre-mutation error. Nothing has
// been changed on the system when this is raised.
func NewPrerequisiteError(message string, err error) *Error {
	return &Error{
		Code:       ErrCodePrerequisite,
		Message:    message,
		Suggestion: "Fix the reported prerequisite and re-run; no changes were made.",
		Underlying: err,
	}
}

// NewConfigMutationError creates an error for a failed config file write.
func NewConfigMutationError(path string, err error) *Error {
	return &Error{
		Code:       ErrCodeConfigMutation,
		Message:    fmt.Sprintf("failed to mutate %s", path),
		Suggestion: "The pre-mutation backup is preserved under the backups directory; restore it manually if the file is wrong.",
		Underlying: err,
	}
}

// NewConflictUnresolvedError creates an error for a conflict the resolver
// could not clear.
func NewConflictUnresolvedError(reason string) *Error {
	return &Error{
		Code:       ErrCodeConflictUnresolved,
		Message:    reason,
		Suggestion: "Free the conflicting resource (or re-run interactively and confirm) and re-run; completed phases will be skipped.",
	}
}

// NewToolFailedError wraps a non-zero exit from an external tool
// (apt-get, systemctl, docker). The exit code rides along so it can
// become the process exit status.
func NewToolFailedError(tool string, exitCode int, detail string) *Error {
	message := fmt.Sprintf("%s exited %d", tool, exitCode)
	if detail != "" {
		message += ": " + detail
	}
	return &Error{
		Code:     ErrCodeStepFailed,
		Message:  message,
		ExitCode: exitCode,
	}
}

// NewStepFailedError wraps an opaque installer failure.
func NewStepFailedError(step string, err error) *Error {
	return &Error{
		Code:       ErrCodeStepFailed,
		Message:    "step failed",
		Step:       step,
		Underlying: err,
	}
}
