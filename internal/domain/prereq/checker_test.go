package prereq

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/piforge/piforge/internal/adapters/command"
	"github.com/piforge/piforge/internal/adapters/logging"
	"github.com/piforge/piforge/internal/domain/provision"
	"github.com/piforge/piforge/internal/ports"
)

type fixedDisk struct {
	free uint64
	err  error
}

func (d fixedDisk) FreeBytes(string) (uint64, error) {
	return d.free, d.err
}

func okDial(_, _ string, _ time.Duration) (net.Conn, error) {
	client, server := net.Pipe()
	go func() { _ = server.Close() }()
	return client, nil
}

func failDial(_, _ string, _ time.Duration) (net.Conn, error) {
	return nil, errors.New("network unreachable")
}

func testPhases() []provision.Phase {
	return []provision.Phase{{
		Name: "foundation",
		Steps: []provision.Step{{
			ID:  "noop",
			Run: func(provision.RunContext) error { return nil },
		}},
	}}
}

func newPassingChecker(runner ports.CommandRunner) *Checker {
	c := NewChecker(runner, fixedDisk{free: 8 << 30}, logging.NewNopLogger())
	c.WithEUID(func() int { return 0 }).WithDialer(okDial)
	return c
}

func resultByName(results []CheckResult, name string) (CheckResult, bool) {
	for _, r := range results {
		if r.Name == name {
			return r, true
		}
	}
	return CheckResult{}, false
}

func TestCheckAllPrerequisitesPass(t *testing.T) {
	c := newPassingChecker(command.NewFakeRunner())

	results, err := c.Check(context.Background(), testPhases(), "/var/lib/piforge")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	for _, r := range results {
		if !r.Passed {
			t.Errorf("check %s failed: %s", r.Name, r.Detail)
		}
	}
}

func TestCheckRequiresRoot(t *testing.T) {
	c := newPassingChecker(command.NewFakeRunner())
	c.WithEUID(func() int { return 1000 })

	results, err := c.Check(context.Background(), testPhases(), "/var/lib/piforge")
	if err == nil {
		t.Fatal("expected failure for non-root")
	}
	var perr *provision.Error
	if !errors.As(err, &perr) || perr.Code != provision.ErrCodePrerequisite {
		t.Errorf("err = %v, want prerequisite classification", err)
	}
	if r, ok := resultByName(results, "privilege"); !ok || r.Passed {
		t.Errorf("privilege result = %+v", r)
	}
}

func TestCheckRequiresNetwork(t *testing.T) {
	c := newPassingChecker(command.NewFakeRunner())
	c.WithDialer(failDial)

	_, err := c.Check(context.Background(), testPhases(), "/var/lib/piforge")
	if err == nil {
		t.Fatal("expected failure for unreachable network")
	}
}

func TestCheckRequiresDiskSpace(t *testing.T) {
	c := NewChecker(command.NewFakeRunner(), fixedDisk{free: 100 << 20}, logging.NewNopLogger())
	c.WithEUID(func() int { return 0 }).WithDialer(okDial)

	results, err := c.Check(context.Background(), testPhases(), "/var/lib/piforge")
	if err == nil {
		t.Fatal("expected failure for low disk space")
	}
	if r, _ := resultByName(results, "disk-space"); r.Passed {
		t.Errorf("disk-space result = %+v", r)
	}
}

func TestCheckRejectsPhaseWithoutSteps(t *testing.T) {
	c := newPassingChecker(command.NewFakeRunner())

	phases := []provision.Phase{{Name: "empty"}}
	if _, err := c.Check(context.Background(), phases, "/var/lib/piforge"); err == nil {
		t.Fatal("expected failure for phase without steps")
	}
}

func TestCheckRejectsStepWithoutEntryPoint(t *testing.T) {
	c := newPassingChecker(command.NewFakeRunner())

	phases := []provision.Phase{{Name: "broken", Steps: []provision.Step{{ID: "nil-run"}}}}
	if _, err := c.Check(context.Background(), phases, "/var/lib/piforge"); err == nil {
		t.Fatal("expected failure for step without Run")
	}
}

func TestCheckDockerVersionFloor(t *testing.T) {
	runner := command.NewFakeRunner()
	runner.Stub("docker --version", ports.CommandResult{
		ExitCode: 0,
		Stdout:   "Docker version 20.10.5, build 55c4c88",
	})

	c := newPassingChecker(runner)
	c.MinDockerVersion = "v24.0.0"
	results, err := c.Check(context.Background(), testPhases(), "/var/lib/piforge")
	if err == nil {
		t.Fatal("expected failure for outdated docker")
	}
	if r, ok := resultByName(results, "docker-version"); !ok || r.Passed {
		t.Errorf("docker-version result = %+v", r)
	}

	c.MinDockerVersion = "v20.10.0"
	if _, err := c.Check(context.Background(), testPhases(), "/var/lib/piforge"); err != nil {
		t.Fatalf("docker 20.10.5 should satisfy floor 20.10.0: %v", err)
	}
}

func TestCheckSkipsDockerVersionByDefault(t *testing.T) {
	runner := command.NewFakeRunner()
	c := newPassingChecker(runner)

	if _, err := c.Check(context.Background(), testPhases(), "/var/lib/piforge"); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if n := runner.CallCount("docker"); n != 0 {
		t.Errorf("docker invoked %d times despite empty version floor", n)
	}
}
