// Package docker drives the container runtime through the docker CLI.
package docker

import (
	"context"
	"fmt"
	"strings"

	"github.com/piforge/piforge/internal/domain/conflict"
	"github.com/piforge/piforge/internal/ports"
)

// CLIRuntime implements conflict.ContainerRuntime using the docker binary.
type CLIRuntime struct {
	runner ports.CommandRunner
}

// NewCLIRuntime creates a CLIRuntime.
func NewCLIRuntime(runner ports.CommandRunner) *CLIRuntime {
	return &CLIRuntime{runner: runner}
}

// Lookup finds a container by exact name, running or stopped.
func (d *CLIRuntime) Lookup(ctx context.Context, name string) (*conflict.Container, error) {
	result, err := d.runner.Run(ctx, "docker", "ps", "-a",
		"--filter", "name=^"+name+"$",
		"--format", "{{.ID}}\t{{.Names}}\t{{.State}}")
	if err != nil {
		return nil, err
	}
	if !result.Success() {
		return nil, fmt.Errorf("docker ps failed: %s", strings.TrimSpace(result.Stderr))
	}

	for _, line := range strings.Split(strings.TrimSpace(result.Stdout), "\n") {
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 3 || fields[1] != name {
			continue
		}
		return &conflict.Container{
			ID:      fields[0],
			Name:    fields[1],
			Running: fields[2] == "running",
		}, nil
	}
	return nil, nil
}

// Stop stops a running container.
func (d *CLIRuntime) Stop(ctx context.Context, name string) error {
	result, err := d.runner.Run(ctx, "docker", "stop", name)
	if err != nil {
		return err
	}
	if !result.Success() {
		return fmt.Errorf("docker stop %s failed: %s", name, strings.TrimSpace(result.Stderr))
	}
	return nil
}

// Remove deletes a container.
func (d *CLIRuntime) Remove(ctx context.Context, name string) error {
	result, err := d.runner.Run(ctx, "docker", "rm", name)
	if err != nil {
		return err
	}
	if !result.Success() {
		return fmt.Errorf("docker rm %s failed: %s", name, strings.TrimSpace(result.Stderr))
	}
	return nil
}

// Ensure CLIRuntime implements conflict.ContainerRuntime.
var _ conflict.ContainerRuntime = (*CLIRuntime)(nil)
