// Package command adapts os/exec to the CommandRunner port.
package command

import (
	"bytes"
	"context"
	"errors"
	"os/exec"

	"github.com/piforge/piforge/internal/ports"
)

// RealRunner invokes system tools (apt-get, systemctl, docker, ss)
// through os/exec.
type RealRunner struct{}

// NewRealRunner creates a RealRunner.
func NewRealRunner() *RealRunner {
	return &RealRunner{}
}

// Run executes command with args and captures both output streams.
//
// A non-zero exit is not an error here: it lands in CommandResult.ExitCode
// because callers treat specific codes as data (conflict probes, version
// checks, verbatim exit propagation). A returned error means the command
// never ran at all, e.g. the binary is missing or the context expired.
func (r *RealRunner) Run(ctx context.Context, command string, args ...string) (ports.CommandResult, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	result := ports.CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	var exitErr *exec.ExitError
	switch {
	case runErr == nil:
	case errors.As(runErr, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		return result, runErr
	}
	return result, nil
}

var _ ports.CommandRunner = (*RealRunner)(nil)
