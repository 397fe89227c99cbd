// Package installers defines the feature phases. Each phase body is
// opaque to the core: it consumes the mutator, resolver and validator
// primitives and must stay idempotent because the orchestrator may
// re-run a phase after a crash.
package installers

import (
	"fmt"
	"strings"

	"github.com/piforge/piforge/internal/config"
	"github.com/piforge/piforge/internal/domain/confedit"
	"github.com/piforge/piforge/internal/domain/conflict"
	"github.com/piforge/piforge/internal/domain/provision"
	"github.com/piforge/piforge/internal/domain/validate"
	"github.com/piforge/piforge/internal/ports"
)

// Deps bundles everything installer phases need.
type Deps struct {
	Runner    ports.CommandRunner
	FS        ports.FileSystem
	Mutator   *confedit.Mutator
	Resolver  *conflict.Resolver
	Validator *validate.Validator
	Config    config.Config
	Preset    config.Preset
}

// Phases returns the enabled phases for this configuration, foundation
// first. The graph still re-checks ordering; this is just construction.
func Phases(deps Deps) []provision.Phase {
	phases := []provision.Phase{Foundation(deps)}

	if deps.Config.Features.Arcade {
		phases = append(phases, Arcade(deps))
	}
	if deps.Config.Features.HomeHub {
		phases = append(phases, HomeHub(deps))
	}
	if deps.Config.Features.Media {
		phases = append(phases, Media(deps))
	}
	if deps.Config.Features.FileShare {
		phases = append(phases, FileShare(deps))
	}
	if deps.Config.Features.NetStack {
		phases = append(phases, NetStack(deps))
	}
	return phases
}

// aptInstall installs one package through apt-get. A non-zero exit code
// is surfaced verbatim so the orchestrator can propagate it.
func aptInstall(deps Deps, pkg string) func(provision.RunContext) error {
	return func(runCtx provision.RunContext) error {
		result, err := deps.Runner.Run(runCtx.Context(),
			"apt-get", "install", "-y", "--no-install-recommends", pkg)
		if err != nil {
			return err
		}
		if !result.Success() {
			return provision.NewToolFailedError("apt-get install "+pkg,
				result.ExitCode, strings.TrimSpace(result.Stderr))
		}
		return nil
	}
}

// packageSteps builds one BestEffort step per package: a single broken
// package must not sink its phase.
func packageSteps(deps Deps, pkgs []string) []provision.Step {
	steps := make([]provision.Step, 0, len(pkgs))
	for _, pkg := range pkgs {
		steps = append(steps, provision.Step{
			ID:          "packages:" + pkg,
			Description: "install " + pkg,
			Policy:      provision.BestEffort,
			Run:         aptInstall(deps, pkg),
		})
	}
	return steps
}

// systemctl runs a systemctl subcommand and fails on non-zero exit.
func systemctl(deps Deps, runCtx provision.RunContext, args ...string) error {
	result, err := deps.Runner.Run(runCtx.Context(), "systemctl", args...)
	if err != nil {
		return err
	}
	if !result.Success() {
		return provision.NewToolFailedError("systemctl "+strings.Join(args, " "),
			result.ExitCode, strings.TrimSpace(result.Stderr))
	}
	return nil
}

// validateStep polls a check and downgrades a timeout to an unverified
// capability instead of failing the phase.
func validateStep(deps Deps, id string, check validate.Check) provision.Step {
	return provision.Step{
		ID:          id,
		Description: "verify " + check.Capability,
		Policy:      provision.BestEffort,
		Run: func(runCtx provision.RunContext) error {
			outcome := deps.Validator.Poll(runCtx.Context(), check)
			if outcome.TimedOut {
				runCtx.ReportUnverified(check.Capability,
					fmt.Sprintf("not observable within %s", check.Timeout))
			}
			return nil
		},
	}
}
