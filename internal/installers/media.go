package installers

import (
	"github.com/piforge/piforge/internal/domain/confedit"
	"github.com/piforge/piforge/internal/domain/provision"
	"github.com/piforge/piforge/internal/domain/validate"
)

const (
	mediaUnitPath   = "/etc/systemd/system/kodi.service"
	mediaBlockBegin = "# BEGIN PIFORGE MEDIA"
	mediaBlockEnd   = "# END PIFORGE MEDIA"
)

const mediaUnitBody = `[Unit]
Description=Kodi media center
After=network-online.target

[Service]
User=pi
ExecStart=/usr/bin/kodi-standalone
Restart=on-abort

[Install]
WantedBy=multi-user.target
`

// Media provisions the media center as a managed service: the kodi
// package, a unit file, and a service-active validation.
func Media(deps Deps) provision.Phase {
	steps := packageSteps(deps, []string{"kodi"})

	steps = append(steps,
		provision.Step{
			ID:          "service-unit",
			Description: "install the media center service unit",
			Policy:      provision.FailFast,
			Run: func(runCtx provision.RunContext) error {
				if err := deps.Mutator.UpsertBlock(runCtx.Context(), confedit.Block{
					Path:        mediaUnitPath,
					BeginMarker: mediaBlockBegin,
					EndMarker:   mediaBlockEnd,
					Content:     mediaUnitBody,
					Owner:       "media",
				}); err != nil {
					return err
				}
				if err := systemctl(deps, runCtx, "daemon-reload"); err != nil {
					return err
				}
				return systemctl(deps, runCtx, "enable", "--now", "kodi")
			},
		},
		validateStep(deps, "verify", validate.Check{
			Kind:       validate.ServiceActive,
			Target:     "kodi",
			Capability: "media center service",
			Timeout:    deps.Preset.ServiceTimeout(),
			Interval:   deps.Preset.PollInterval(),
		}),
	)

	return provision.Phase{
		Name:        "media",
		Description: "media center service",
		DependsOn:   []string{"foundation"},
		Steps:       steps,
	}
}
