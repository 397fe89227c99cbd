package orchestrator

import (
	"time"

	"github.com/piforge/piforge/internal/domain/prereq"
	"github.com/piforge/piforge/internal/domain/provision"
)

// RunSummary is the end-of-run account of what happened: per-phase
// results, prerequisite outcomes, and whether a reboot is pending.
type RunSummary struct {
	StartedAt      time.Time
	FinishedAt     time.Time
	Prerequisites  []prereq.CheckResult
	Phases         []PhaseResult
	RebootRequired bool
	Fatal          error
}

// Succeeded counts phases that completed this run.
func (s *RunSummary) Succeeded() int {
	return s.countStatus(provision.StatusSucceeded)
}

// Skipped counts phases already complete from a prior run.
func (s *RunSummary) Skipped() int {
	return s.countStatus(provision.StatusSkipped)
}

// Failed counts failed phases (zero or one; the run halts on failure).
func (s *RunSummary) Failed() int {
	return s.countStatus(provision.StatusFailed)
}

// Warnings returns every non-fatal step failure across all phases.
func (s *RunSummary) Warnings() []Warning {
	var all []Warning
	for _, p := range s.Phases {
		all = append(all, p.Warnings...)
	}
	return all
}

// UnverifiedCapabilities returns every capability whose validation
// timed out across all phases.
func (s *RunSummary) UnverifiedCapabilities() []Unverified {
	var all []Unverified
	for _, p := range s.Phases {
		all = append(all, p.Unverified...)
	}
	return all
}

func (s *RunSummary) countStatus(status provision.PhaseStatus) int {
	n := 0
	for _, p := range s.Phases {
		if p.Status == status {
			n++
		}
	}
	return n
}
