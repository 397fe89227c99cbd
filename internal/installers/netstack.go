package installers

import (
	"github.com/piforge/piforge/internal/domain/provision"
	"github.com/piforge/piforge/internal/domain/validate"
)

// NetStack enables NetworkManager. This mutation is opt-in and off by
// default: it has broken connectivity on some images, so it only runs
// when the configuration asks for it explicitly.
func NetStack(deps Deps) provision.Phase {
	return provision.Phase{
		Name:        "netstack",
		Description: "network manager enablement (opt-in)",
		DependsOn:   []string{"foundation"},
		Steps: []provision.Step{
			{
				ID:          "enable",
				Description: "enable and start NetworkManager",
				Policy:      provision.FailFast,
				Run: func(runCtx provision.RunContext) error {
					return systemctl(deps, runCtx, "enable", "--now", "NetworkManager")
				},
			},
			validateStep(deps, "verify", validate.Check{
				Kind:       validate.ServiceActive,
				Target:     "NetworkManager",
				Capability: "managed networking",
				Timeout:    deps.Preset.ServiceTimeout(),
				Interval:   deps.Preset.PollInterval(),
			}),
		},
	}
}
