package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/piforge/piforge/internal/adapters/logging"
	"github.com/piforge/piforge/internal/domain/provision"
)

func runCtx() provision.RunContext {
	return provision.NewRunContext(context.Background()).WithLogger(logging.NewNopLogger())
}

func TestExecuteAllStepsSucceed(t *testing.T) {
	var order []string
	step := func(id string) provision.Step {
		return provision.Step{ID: id, Policy: provision.FailFast, Run: func(provision.RunContext) error {
			order = append(order, id)
			return nil
		}}
	}

	e := NewPhaseExecutor(logging.NewNopLogger())
	result := e.Execute(runCtx(), provision.Phase{
		Name:  "foundation",
		Steps: []provision.Step{step("a"), step("b"), step("c")},
	})

	if result.Status != provision.StatusSucceeded {
		t.Fatalf("status = %s", result.Status)
	}
	if len(order) != 3 || order[0] != "a" || order[2] != "c" {
		t.Errorf("execution order = %v", order)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("warnings = %v", result.Warnings)
	}
}

func TestExecuteFailFastAbortsRemainingSteps(t *testing.T) {
	invoked := map[string]bool{}
	e := NewPhaseExecutor(logging.NewNopLogger())

	result := e.Execute(runCtx(), provision.Phase{
		Name: "foundation",
		Steps: []provision.Step{
			{ID: "a", Policy: provision.FailFast, Run: func(provision.RunContext) error {
				invoked["a"] = true
				return errors.New("boom")
			}},
			{ID: "b", Policy: provision.FailFast, Run: func(provision.RunContext) error {
				invoked["b"] = true
				return nil
			}},
		},
	})

	if result.Status != provision.StatusFailed {
		t.Fatalf("status = %s", result.Status)
	}
	if invoked["b"] {
		t.Error("step after fail-fast failure was invoked")
	}

	var perr *provision.Error
	if !errors.As(result.FatalCause, &perr) {
		t.Fatalf("fatal cause = %v, want classified error", result.FatalCause)
	}
	if perr.Phase != "foundation" || perr.Step != "a" {
		t.Errorf("classified as phase=%q step=%q", perr.Phase, perr.Step)
	}
}

func TestExecuteBestEffortFailureBecomesWarning(t *testing.T) {
	invoked := map[string]bool{}
	e := NewPhaseExecutor(logging.NewNopLogger())

	result := e.Execute(runCtx(), provision.Phase{
		Name: "arcade",
		Steps: []provision.Step{
			{ID: "packages:joystick", Policy: provision.BestEffort, Run: func(provision.RunContext) error {
				return errors.New("package not found")
			}},
			{ID: "autostart", Policy: provision.FailFast, Run: func(provision.RunContext) error {
				invoked["autostart"] = true
				return nil
			}},
		},
	})

	if result.Status != provision.StatusSucceeded {
		t.Fatalf("status = %s, best-effort failure must not sink the phase", result.Status)
	}
	if !invoked["autostart"] {
		t.Error("step after best-effort failure was not invoked")
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Step != "packages:joystick" {
		t.Errorf("warnings = %+v", result.Warnings)
	}
}

func TestExecuteMixedPoliciesOneWarningOneFatal(t *testing.T) {
	e := NewPhaseExecutor(logging.NewNopLogger())

	result := e.Execute(runCtx(), provision.Phase{
		Name: "media",
		Steps: []provision.Step{
			{ID: "packages:broken", Policy: provision.BestEffort, Run: func(provision.RunContext) error {
				return errors.New("package not found")
			}},
			{ID: "packages:fine", Policy: provision.BestEffort, Run: func(provision.RunContext) error {
				return nil
			}},
			{ID: "service-unit", Policy: provision.FailFast, Run: func(provision.RunContext) error {
				return errors.New("unit install failed")
			}},
		},
	})

	if result.Status != provision.StatusFailed {
		t.Fatalf("status = %s", result.Status)
	}
	if len(result.Warnings) != 1 {
		t.Errorf("warnings = %+v, want exactly one", result.Warnings)
	}
	if result.FatalCause == nil {
		t.Error("fatal cause missing")
	}
}

func TestExecutePreservesClassifiedErrors(t *testing.T) {
	e := NewPhaseExecutor(logging.NewNopLogger())
	cause := provision.NewConflictUnresolvedError("port 8123 occupied")

	result := e.Execute(runCtx(), provision.Phase{
		Name: "homehub",
		Steps: []provision.Step{
			{ID: "port-conflict", Policy: provision.FailFast, Run: func(provision.RunContext) error {
				return cause
			}},
		},
	})

	var perr *provision.Error
	if !errors.As(result.FatalCause, &perr) {
		t.Fatalf("fatal cause = %v", result.FatalCause)
	}
	if perr.Code != provision.ErrCodeConflictUnresolved {
		t.Errorf("code = %s, classification was overwritten", perr.Code)
	}
	if perr.Phase != "homehub" || perr.Step != "port-conflict" {
		t.Errorf("phase=%q step=%q not filled in", perr.Phase, perr.Step)
	}
}

func TestExecuteCollectsUnverifiedCapabilities(t *testing.T) {
	e := NewPhaseExecutor(logging.NewNopLogger())

	result := e.Execute(runCtx(), provision.Phase{
		Name: "media",
		Steps: []provision.Step{
			{ID: "verify", Policy: provision.BestEffort, Run: func(rc provision.RunContext) error {
				rc.ReportUnverified("media center service", "not observable within 30s")
				return nil
			}},
		},
	})

	if result.Status != provision.StatusSucceeded {
		t.Fatalf("status = %s, unverified capability must not fail the phase", result.Status)
	}
	if len(result.Unverified) != 1 || result.Unverified[0].Capability != "media center service" {
		t.Errorf("unverified = %+v", result.Unverified)
	}
}

func TestExecuteDryRunSkipsSteps(t *testing.T) {
	invoked := 0
	e := NewPhaseExecutor(logging.NewNopLogger())

	result := e.Execute(runCtx().WithDryRun(true), provision.Phase{
		Name: "foundation",
		Steps: []provision.Step{
			{ID: "apt:update", Policy: provision.FailFast, Run: func(provision.RunContext) error {
				invoked++
				return errors.New("must not run")
			}},
		},
	})

	if invoked != 0 {
		t.Errorf("dry run invoked %d steps", invoked)
	}
	if result.Status != provision.StatusSucceeded {
		t.Errorf("status = %s", result.Status)
	}
}

func TestExecuteCancelledContextFailsPhase(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	invoked := 0
	e := NewPhaseExecutor(logging.NewNopLogger())
	result := e.Execute(
		provision.NewRunContext(ctx).WithLogger(logging.NewNopLogger()),
		provision.Phase{
			Name: "foundation",
			Steps: []provision.Step{
				{ID: "a", Policy: provision.FailFast, Run: func(provision.RunContext) error {
					invoked++
					return nil
				}},
			},
		})

	if result.Status != provision.StatusFailed {
		t.Fatalf("status = %s", result.Status)
	}
	if invoked != 0 {
		t.Error("step ran despite cancelled context")
	}
}
