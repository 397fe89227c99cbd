package installers

import (
	"github.com/piforge/piforge/internal/domain/confedit"
	"github.com/piforge/piforge/internal/domain/provision"
)

const (
	arcadeBlockBegin = "# BEGIN PIFORGE ARCADE"
	arcadeBlockEnd   = "# END PIFORGE ARCADE"

	// Session autostart shared by the lightweight desktop images.
	autostartPath = "/etc/xdg/lxsession/LXDE-pi/autostart"
)

var arcadePackages = []string{
	"retroarch",
	"joystick",
	"jstest-gtk",
}

// Arcade provisions the gaming frontend: emulator packages and a
// session autostart entry.
func Arcade(deps Deps) provision.Phase {
	steps := packageSteps(deps, arcadePackages)

	steps = append(steps, provision.Step{
		ID:          "autostart",
		Description: "start the frontend on login",
		Policy:      provision.FailFast,
		Run: func(runCtx provision.RunContext) error {
			return deps.Mutator.UpsertBlock(runCtx.Context(), confedit.Block{
				Path:        autostartPath,
				BeginMarker: arcadeBlockBegin,
				EndMarker:   arcadeBlockEnd,
				Content:     "@retroarch --fullscreen\n",
				Owner:       "arcade",
			})
		},
	})

	return provision.Phase{
		Name:        "arcade",
		Description: "gaming frontend",
		DependsOn:   []string{"foundation"},
		Steps:       steps,
	}
}
