// Package runstate persists which phases have completed, so a second
// invocation (after a crash, an abort, or a reboot) skips finished work.
package runstate

import (
	"time"
)

// CompletionRecord marks one phase as succeeded.
type CompletionRecord struct {
	Phase       string    `yaml:"phase"`
	CompletedAt time.Time `yaml:"completed_at"`
}

// RunState is the process-wide record of phase completion. It is created
// on the first invocation, read and updated on every invocation, and
// never deleted automatically.
type RunState struct {
	CreatedAt time.Time                   `yaml:"created_at"`
	UpdatedAt time.Time                   `yaml:"updated_at"`
	Completed map[string]CompletionRecord `yaml:"completed"`
}

// New creates an empty RunState.
func New(now time.Time) *RunState {
	return &RunState{
		CreatedAt: now,
		UpdatedAt: now,
		Completed: make(map[string]CompletionRecord),
	}
}

// IsCompleted reports whether the phase has a succeeded marker.
func (s *RunState) IsCompleted(phase string) bool {
	_, ok := s.Completed[phase]
	return ok
}

// MarkSucceeded records the phase as completed.
func (s *RunState) MarkSucceeded(phase string, now time.Time) {
	if s.Completed == nil {
		s.Completed = make(map[string]CompletionRecord)
	}
	s.Completed[phase] = CompletionRecord{Phase: phase, CompletedAt: now}
	s.UpdatedAt = now
}

// CompletedPhases returns the names of all completed phases.
func (s *RunState) CompletedPhases() []string {
	names := make([]string, 0, len(s.Completed))
	for name := range s.Completed {
		names = append(names, name)
	}
	return names
}
