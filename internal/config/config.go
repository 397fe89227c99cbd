// Package config loads the appliance run configuration and tuning presets.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/piforge/piforge/internal/domain/provision"
	"gopkg.in/yaml.v3"
)

// Features toggles the optional installer phases. The network-manager
// mutation is opt-in and off by default: enabling it has broken
// connectivity on some images, so it never happens implicitly.
type Features struct {
	Arcade    bool `yaml:"arcade"`
	HomeHub   bool `yaml:"homehub"`
	Media     bool `yaml:"media"`
	FileShare bool `yaml:"fileshare"`
	NetStack  bool `yaml:"netstack"`
}

// HomeHub configures the home-automation container.
type HomeHub struct {
	Image         string `yaml:"image"`
	ContainerName string `yaml:"container_name"`
	Port          int    `yaml:"port"`
	Timezone      string `yaml:"timezone"`
	ConfigDir     string `yaml:"config_dir"`
}

// FileShare configures the Samba export.
type FileShare struct {
	ShareName string `yaml:"share_name"`
	SharePath string `yaml:"share_path"`
	Guest     bool   `yaml:"guest"`
}

// Config is the appliance run configuration, loaded from YAML.
type Config struct {
	Preset     string    `yaml:"preset"`
	AutoReboot bool      `yaml:"auto_reboot"`
	StateDir   string    `yaml:"state_dir"`
	LogsDir    string    `yaml:"logs_dir"`
	BootConfig string    `yaml:"boot_config"`
	Features   Features  `yaml:"features"`
	HomeHub    HomeHub   `yaml:"homehub"`
	FileShare  FileShare `yaml:"fileshare"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Preset:     "conservative",
		StateDir:   "/var/lib/piforge",
		LogsDir:    "/var/log/piforge",
		BootConfig: "/boot/config.txt",
		Features: Features{
			Arcade:    true,
			HomeHub:   true,
			Media:     true,
			FileShare: true,
			NetStack:  false,
		},
		HomeHub: HomeHub{
			Image:         "ghcr.io/home-assistant/home-assistant:stable",
			ContainerName: "homeassistant",
			Port:          8123,
			Timezone:      "UTC",
			ConfigDir:     "/opt/homeassistant/config",
		},
		FileShare: FileShare{
			ShareName: "media",
			SharePath: "/srv/media",
			Guest:     true,
		},
	}
}

// Load reads configuration from path, falling back to defaults when the
// file does not exist.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ResolvePreset picks this configuration's tuning preset. An unknown
// name is an error so a typo does not silently run with default tuning.
func (c Config) ResolvePreset(presets map[string]Preset) (Preset, error) {
	preset, ok := presets[c.Preset]
	if !ok {
		return Preset{}, fmt.Errorf("unknown preset %q", c.Preset)
	}
	return preset, nil
}

// Paths derives the provision.Paths for this configuration.
func (c Config) Paths() provision.Paths {
	return provision.Paths{
		BootConfig:   c.BootConfig,
		StateDir:     c.StateDir,
		LogsDir:      c.LogsDir,
		RunStateFile: filepath.Join(c.StateDir, "runstate.yaml"),
		BackupsDir:   filepath.Join(c.StateDir, "backups"),
	}
}
