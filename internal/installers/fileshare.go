package installers

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/piforge/piforge/internal/config"
	"github.com/piforge/piforge/internal/domain/confedit"
	"github.com/piforge/piforge/internal/domain/conflict"
	"github.com/piforge/piforge/internal/domain/provision"
	"github.com/piforge/piforge/internal/domain/validate"
	"gopkg.in/ini.v1"
)

const (
	smbConfPath     = "/etc/samba/smb.conf"
	smbPort         = 445
	shareBlockBegin = "# BEGIN PIFORGE SHARE"
	shareBlockEnd   = "# END PIFORGE SHARE"
)

// FileShare provisions the Samba export. The share section is rendered
// as INI and owned as a marker block inside smb.conf, so re-running
// rewrites our section without touching the rest of the file.
func FileShare(deps Deps) provision.Phase {
	share := deps.Config.FileShare

	return provision.Phase{
		Name:        "fileshare",
		Description: "network file share",
		DependsOn:   []string{"foundation"},
		Steps: []provision.Step{
			{
				ID:          "packages:samba",
				Description: "install samba",
				Policy:      provision.FailFast,
				Run:         aptInstall(deps, "samba"),
			},
			{
				ID:          "port-conflict",
				Description: fmt.Sprintf("ensure port %d is available", smbPort),
				Policy:      provision.FailFast,
				Run: func(runCtx provision.RunContext) error {
					resolution, err := deps.Resolver.ResolvePort(runCtx.Context(), conflict.PortRequest{
						Port:         smbPort,
						OwnProcesses: []string{"smbd"},
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
				ID:          "share-config",
				Description: "export " + share.SharePath + " as " + share.ShareName,
				Policy:      provision.FailFast,
				Run: func(runCtx provision.RunContext) error {
					if err := deps.FS.MkdirAll(share.SharePath, 0o775); err != nil {
						return fmt.Errorf("create share dir: %w", err)
					}

					section, err := renderShareSection(share)
					if err != nil {
						return err
					}
					if err := deps.Mutator.UpsertBlock(runCtx.Context(), confedit.Block{
						Path:        smbConfPath,
						BeginMarker: shareBlockBegin,
						EndMarker:   shareBlockEnd,
						Content:     section,
						Owner:       "fileshare",
					}); err != nil {
						return err
					}
					return systemctl(deps, runCtx, "restart", "smbd")
				},
			},
			validateStep(deps, "verify", validate.Check{
				Kind:       validate.PortListening,
				Target:     "127.0.0.1:" + strconv.Itoa(smbPort),
				Capability: "network file share",
				Timeout:    deps.Preset.ServiceTimeout(),
				Interval:   deps.Preset.PollInterval(),
			}),
		},
	}
}

func renderShareSection(share config.FileShare) (string, error) {
	f := ini.Empty()
	section, err := f.NewSection(share.ShareName)
	if err != nil {
		return "", fmt.Errorf("render share section: %w", err)
	}

	pairs := [][2]string{
		{"path", share.SharePath},
		{"browseable", "yes"},
		{"read only", "no"},
	}
	if share.Guest {
		pairs = append(pairs, [2]string{"guest ok", "yes"})
	}
	for _, kv := range pairs {
		if _, err := section.NewKey(kv[0], kv[1]); err != nil {
			return "", fmt.Errorf("render share section: %w", err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return "", fmt.Errorf("render share section: %w", err)
	}
	return buf.String(), nil
}
