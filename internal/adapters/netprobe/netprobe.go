// Package netprobe observes port bindings and terminates their owners
// through standard system tools.
package netprobe

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/piforge/piforge/internal/domain/conflict"
	"github.com/piforge/piforge/internal/ports"
)

// SSProber implements conflict.PortProber by parsing `ss -ltnp` output.
type SSProber struct {
	runner ports.CommandRunner
}

// NewSSProber creates an SSProber.
func NewSSProber(runner ports.CommandRunner) *SSProber {
	return &SSProber{runner: runner}
}

// users:(("hass",pid=612,fd=7))
var processPattern = regexp.MustCompile(`users:\(\("([^"]+)",pid=(\d+)`)

// ListeningOn reports what listens on the given TCP port.
func (p *SSProber) ListeningOn(ctx context.Context, port int) (*conflict.PortBinding, error) {
	result, err := p.runner.Run(ctx, "ss", "-ltnp", "sport", "=", ":"+strconv.Itoa(port))
	if err != nil {
		return nil, err
	}
	if !result.Success() {
		return nil, fmt.Errorf("ss failed: %s", strings.TrimSpace(result.Stderr))
	}

	// The sport filter restricts output to the requested port, so any
	// LISTEN row is a hit.
	for _, line := range strings.Split(result.Stdout, "\n") {
		if !strings.Contains(line, "LISTEN") {
			continue
		}

		binding := &conflict.PortBinding{Port: port}
		if m := processPattern.FindStringSubmatch(line); m != nil {
			binding.Process = m[1]
			if pid, err := strconv.Atoi(m[2]); err == nil {
				binding.PID = pid
			}
		}
		return binding, nil
	}
	return nil, nil
}

// KillTerminator implements conflict.ProcessTerminator via kill.
type KillTerminator struct {
	runner ports.CommandRunner
}

// NewKillTerminator creates a KillTerminator.
func NewKillTerminator(runner ports.CommandRunner) *KillTerminator {
	return &KillTerminator{runner: runner}
}

// Terminate sends SIGTERM to the process.
func (t *KillTerminator) Terminate(ctx context.Context, pid int) error {
	result, err := t.runner.Run(ctx, "kill", strconv.Itoa(pid))
	if err != nil {
		return err
	}
	if !result.Success() {
		return fmt.Errorf("kill %d failed: %s", pid, strings.TrimSpace(result.Stderr))
	}
	return nil
}

// Ensure implementations satisfy the conflict interfaces.
var (
	_ conflict.PortProber        = (*SSProber)(nil)
	_ conflict.ProcessTerminator = (*KillTerminator)(nil)
)
