package installers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/piforge/piforge/internal/domain/conflict"
	"github.com/piforge/piforge/internal/domain/provision"
	"github.com/piforge/piforge/internal/domain/validate"
)

// HomeHub provisions the home-automation container. The port and
// container name are checked for conflicts before anything is created;
// a declined port takeover aborts the phase with ConflictUnresolved.
func HomeHub(deps Deps) provision.Phase {
	hub := deps.Config.HomeHub

	return provision.Phase{
		Name:        "homehub",
		Description: "home automation hub container",
		DependsOn:   []string{"foundation"},
		Steps: []provision.Step{
			{
				ID:          "port-conflict",
				Description: fmt.Sprintf("ensure port %d is available", hub.Port),
				Policy:      provision.FailFast,
				Run: func(runCtx provision.RunContext) error {
					resolution, err := deps.Resolver.ResolvePort(runCtx.Context(), conflict.PortRequest{
						Port: hub.Port,
						// docker-proxy fronts the published port of our
						// own prior container.
						OwnProcesses: []string{"docker-proxy", hub.ContainerName},
					})
					if err != nil {
						return err
					}
					if !resolution.Proceed {
						return provision.NewConflictUnresolvedError(resolution.Reason)
					}
					return nil
				},
			},
			{
				ID:          "container",
				Description: "create the " + hub.ContainerName + " container",
				Policy:      provision.FailFast,
				Run: func(runCtx provision.RunContext) error {
					ctx := runCtx.Context()

					resolution, err := deps.Resolver.ResolveContainer(ctx, conflict.ContainerRequest{
						Name: hub.ContainerName,
					})
					if err != nil {
						return err
					}
					if !resolution.Proceed {
						return provision.NewConflictUnresolvedError(resolution.Reason)
					}

					if err := deps.FS.MkdirAll(hub.ConfigDir, 0o755); err != nil {
						return fmt.Errorf("create config dir: %w", err)
					}

					result, err := deps.Runner.Run(ctx, "docker", "run", "-d",
						"--name", hub.ContainerName,
						"--restart", "unless-stopped",
						"-e", "TZ="+hub.Timezone,
						"-v", hub.ConfigDir+":/config",
						"-p", strconv.Itoa(hub.Port)+":8123",
						hub.Image)
					if err != nil {
						return err
					}
					if !result.Success() {
						return provision.NewToolFailedError("docker run",
							result.ExitCode, strings.TrimSpace(result.Stderr))
					}
					return nil
				},
			},
			validateStep(deps, "verify", validate.Check{
				Kind:       validate.HTTPReachable,
				Target:     "http://127.0.0.1:" + strconv.Itoa(hub.Port),
				Capability: "home automation web interface",
				Timeout:    deps.Preset.ContainerTimeout(),
				Interval:   deps.Preset.PollInterval(),
			}),
		},
	}
}
