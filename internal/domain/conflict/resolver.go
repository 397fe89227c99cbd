// Package conflict detects and resolves port and container collisions
// before a step commits a mutation.
package conflict

import (
	"context"
	"fmt"

	"github.com/piforge/piforge/internal/ports"
)

// PortBinding is an observed fact about a currently bound port.
type PortBinding struct {
	Port    int
	PID     int
	Process string
}

// Container is an observed fact about an existing container.
type Container struct {
	ID      string
	Name    string
	Running bool
}

// PortProber reports what is listening on a port.
type PortProber interface {
	// ListeningOn returns the binding for port, or nil if the port is free.
	ListeningOn(ctx context.Context, port int) (*PortBinding, error)
}

// ProcessTerminator terminates the process occupying a port.
type ProcessTerminator interface {
	Terminate(ctx context.Context, pid int) error
}

// ContainerRuntime observes and removes containers by name.
type ContainerRuntime interface {
	// Lookup returns the container with the given name (running or
	// stopped), or nil if none exists.
	Lookup(ctx context.Context, name string) (*Container, error)
	Stop(ctx context.Context, name string) error
	Remove(ctx context.Context, name string) error
}

// PortRequest asks to bind a port.
type PortRequest struct {
	Port int
	// OwnProcesses lists process names the caller recognizes as its own
	// prior instance; a binding by one of these is not a conflict.
	OwnProcesses []string
}

// ContainerRequest asks to create a container with a fixed name.
type ContainerRequest struct {
	Name string
}

// Resolution is the resolver's verdict. Steps must not bind a port or
// create a container without a prior Proceed=true resolution.
type Resolution struct {
	Proceed bool
	Reason  string
}

// Resolver checks requests against observed system state.
// The prompter embodies the run mode: interactive runs wire a terminal
// prompter, unattended runs wire one that declines everything.
type Resolver struct {
	probe      PortProber
	terminator ProcessTerminator
	runtime    ContainerRuntime
	prompter   ports.Prompter
	logger     ports.Logger
}

// NewResolver creates a Resolver.
func NewResolver(probe PortProber, terminator ProcessTerminator, runtime ContainerRuntime, prompter ports.Prompter, logger ports.Logger) *Resolver {
	return &Resolver{
		probe:      probe,
		terminator: terminator,
		runtime:    runtime,
		prompter:   prompter,
		logger:     logger,
	}
}

// ResolvePort checks whether the requested port can be bound.
func (r *Resolver) ResolvePort(ctx context.Context, req PortRequest) (Resolution, error) {
	binding, err := r.probe.ListeningOn(ctx, req.Port)
	if err != nil {
		return Resolution{}, fmt.Errorf("probe port %d: %w", req.Port, err)
	}
	if binding == nil {
		return Resolution{Proceed: true, Reason: fmt.Sprintf("port %d is free", req.Port)}, nil
	}

	for _, own := range req.OwnProcesses {
		if binding.Process == own {
			return Resolution{
				Proceed: true,
				Reason:  fmt.Sprintf("port %d is held by prior instance %q", req.Port, own),
			}, nil
		}
	}

	r.logger.Warn(ctx, "port conflict detected",
		ports.F("port", req.Port),
		ports.F("process", binding.Process),
		ports.F("pid", binding.PID))

	question := fmt.Sprintf("Port %d is in use by %q (pid %d). Terminate it?",
		req.Port, binding.Process, binding.PID)
	confirmed, err := r.prompter.Confirm(ctx, question)
	if err != nil {
		return Resolution{}, err
	}
	if !confirmed {
		return Resolution{
			Proceed: false,
			Reason:  fmt.Sprintf("port %d is in use by %q (pid %d) and the occupant was not terminated", req.Port, binding.Process, binding.PID),
		}, nil
	}

	if err := r.terminator.Terminate(ctx, binding.PID); err != nil {
		return Resolution{}, fmt.Errorf("terminate pid %d: %w", binding.PID, err)
	}
	r.logger.Info(ctx, "port occupant terminated",
		ports.F("port", req.Port), ports.F("pid", binding.PID))
	return Resolution{Proceed: true, Reason: fmt.Sprintf("occupant of port %d terminated", req.Port)}, nil
}

// ResolveContainer clears the way for a container with the requested
// name. An existing container, running or stopped, is always replaced
// with fresh state, never merged: these installers need a known-clean
// container per run.
func (r *Resolver) ResolveContainer(ctx context.Context, req ContainerRequest) (Resolution, error) {
	existing, err := r.runtime.Lookup(ctx, req.Name)
	if err != nil {
		return Resolution{}, fmt.Errorf("look up container %q: %w", req.Name, err)
	}
	if existing == nil {
		return Resolution{Proceed: true, Reason: fmt.Sprintf("no container named %q", req.Name)}, nil
	}

	if existing.Running {
		if err := r.runtime.Stop(ctx, req.Name); err != nil {
			return Resolution{}, fmt.Errorf("stop container %q: %w", req.Name, err)
		}
	}
	if err := r.runtime.Remove(ctx, req.Name); err != nil {
		return Resolution{}, fmt.Errorf("remove container %q: %w", req.Name, err)
	}

	r.logger.Info(ctx, "existing container replaced",
		ports.F("name", req.Name), ports.F("was_running", existing.Running))
	return Resolution{Proceed: true, Reason: fmt.Sprintf("container %q removed, recreating fresh", req.Name)}, nil
}
