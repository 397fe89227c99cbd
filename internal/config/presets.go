package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Preset is one tuning profile. The repository history of this kind of
// provisioning tool tends to accumulate near-duplicate script variants
// with different timeouts baked in; presets make that one strategy with
// explicit numbers instead.
type Preset struct {
	// ServiceTimeoutSec bounds service-active validation.
	ServiceTimeoutSec int `toml:"service_timeout_sec"`
	// ContainerTimeoutSec bounds http/port validation of containers,
	// which need to pull images and boot on first run.
	ContainerTimeoutSec int `toml:"container_timeout_sec"`
	// PollIntervalSec is the validation poll interval.
	PollIntervalSec int `toml:"poll_interval_sec"`
	// GPUMemoryMB is the video memory split written to boot config.
	GPUMemoryMB int `toml:"gpu_memory_mb"`
	// DisableOverscan removes the black border on modern displays.
	DisableOverscan bool `toml:"disable_overscan"`
}

// ServiceTimeout returns the service validation timeout.
func (p Preset) ServiceTimeout() time.Duration {
	return time.Duration(p.ServiceTimeoutSec) * time.Second
}

// ContainerTimeout returns the container validation timeout.
func (p Preset) ContainerTimeout() time.Duration {
	return time.Duration(p.ContainerTimeoutSec) * time.Second
}

// PollInterval returns the validation poll interval.
func (p Preset) PollInterval() time.Duration {
	return time.Duration(p.PollIntervalSec) * time.Second
}

// BuiltinPresets returns the built-in tuning profiles.
func BuiltinPresets() map[string]Preset {
	return map[string]Preset{
		"conservative": {
			ServiceTimeoutSec:   30,
			ContainerTimeoutSec: 180,
			PollIntervalSec:     3,
			GPUMemoryMB:         128,
			DisableOverscan:     true,
		},
		"aggressive": {
			ServiceTimeoutSec:   15,
			ContainerTimeoutSec: 60,
			PollIntervalSec:     1,
			GPUMemoryMB:         256,
			DisableOverscan:     true,
		},
	}
}

// LoadPresets returns the builtin presets overlaid with any defined in
// the TOML file at path. A missing file yields just the builtins.
func LoadPresets(path string) (map[string]Preset, error) {
	presets := BuiltinPresets()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return presets, nil
		}
		return nil, fmt.Errorf("read presets: %w", err)
	}

	var overrides map[string]Preset
	if err := toml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse presets %s: %w", path, err)
	}
	for name, preset := range overrides {
		presets[name] = preset
	}
	return presets, nil
}
