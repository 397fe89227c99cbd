package installers

import (
	"fmt"
	"strings"

	"github.com/piforge/piforge/internal/domain/confedit"
	"github.com/piforge/piforge/internal/domain/provision"
	"github.com/piforge/piforge/internal/domain/validate"
)

const (
	bootBlockBegin = "# BEGIN PIFORGE BOOT"
	bootBlockEnd   = "# END PIFORGE BOOT"
)

var foundationPackages = []string{
	"curl",
	"ca-certificates",
	"git",
	"unzip",
}

// Foundation provisions the OS-level base everything else depends on:
// base packages, the container runtime, and the boot configuration.
// It is the only phase allowed to touch the boot config file; the step
// vocabulary deliberately has no full-system upgrade and no firmware
// rewrite, because neither fits the backup-and-retry recovery model.
func Foundation(deps Deps) provision.Phase {
	steps := []provision.Step{
		{
			ID:          "apt:update",
			Description: "refresh package index",
			Policy:      provision.FailFast,
			Run: func(runCtx provision.RunContext) error {
				result, err := deps.Runner.Run(runCtx.Context(), "apt-get", "update")
				if err != nil {
					return err
				}
				if !result.Success() {
					return provision.NewToolFailedError("apt-get update",
						result.ExitCode, strings.TrimSpace(result.Stderr))
				}
				return nil
			},
		},
	}

	steps = append(steps, packageSteps(deps, foundationPackages)...)

	steps = append(steps,
		provision.Step{
			ID:          "container-runtime",
			Description: "install and start the container runtime",
			Policy:      provision.FailFast,
			Run: func(runCtx provision.RunContext) error {
				ctx := runCtx.Context()
				if result, err := deps.Runner.Run(ctx, "docker", "--version"); err == nil && result.Success() {
					return systemctl(deps, runCtx, "enable", "--now", "docker")
				}
				if err := aptInstall(deps, "docker.io")(runCtx); err != nil {
					return err
				}
				return systemctl(deps, runCtx, "enable", "--now", "docker")
			},
		},
		validateStep(deps, "container-runtime:verify", validate.Check{
			Kind:       validate.ServiceActive,
			Target:     "docker",
			Capability: "container runtime",
			Timeout:    deps.Preset.ServiceTimeout(),
			Interval:   deps.Preset.PollInterval(),
		}),
		provision.Step{
			ID:          "boot-config",
			Description: "write GPU memory split and overscan settings",
			Policy:      provision.FailFast,
			Run: func(runCtx provision.RunContext) error {
				return deps.Mutator.UpsertBlock(runCtx.Context(), confedit.Block{
					Path:        runCtx.Paths().BootConfig,
					BeginMarker: bootBlockBegin,
					EndMarker:   bootBlockEnd,
					Content:     bootConfigBody(deps),
					Owner:       "foundation",
				})
			},
		},
	)

	return provision.Phase{
		Name:              "foundation",
		Description:       "base packages, container runtime, boot configuration",
		MutatesBootConfig: true,
		Steps:             steps,
	}
}

func bootConfigBody(deps Deps) string {
	var b strings.Builder
	fmt.Fprintf(&b, "gpu_mem=%d\n", deps.Preset.GPUMemoryMB)
	if deps.Preset.DisableOverscan {
		b.WriteString("disable_overscan=1\n")
	}
	return b.String()
}
