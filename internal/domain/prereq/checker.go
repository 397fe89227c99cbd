// Package prereq validates global prerequisites before any phase mutates
// the system. Every failure here is fatal and happens before side effects.
package prereq

import (
	"context"
	"fmt"
	"net"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/piforge/piforge/internal/domain/provision"
	"github.com/piforge/piforge/internal/ports"
	"golang.org/x/mod/semver"
)

// CheckResult is the outcome of one prerequisite check.
type CheckResult struct {
	Name   string
	Passed bool
	Detail string
}

// Checker runs the prerequisite gate.
type Checker struct {
	runner ports.CommandRunner
	disk   ports.DiskSpace
	logger ports.Logger

	// Injected for tests.
	euid func() int
	dial func(network, address string, timeout time.Duration) (net.Conn, error)

	// MinFreeBytes is the required free space on the state directory's
	// filesystem. Installers pull container images and package sets, so
	// the default is deliberately generous.
	MinFreeBytes uint64
	// NetProbeAddr is the address dialed to confirm network reachability.
	NetProbeAddr string
	// MinDockerVersion is the semver floor for the container runtime.
	// Empty skips the check; the foundation phase installs the runtime,
	// so this is only set for runs resuming past foundation.
	MinDockerVersion string
}

// NewChecker creates a Checker with production defaults.
func NewChecker(runner ports.CommandRunner, disk ports.DiskSpace, logger ports.Logger) *Checker {
	return &Checker{
		runner:       runner,
		disk:         disk,
		logger:       logger,
		euid:         os.Geteuid,
		dial:         net.DialTimeout,
		MinFreeBytes: 2 << 30, // 2 GiB
		NetProbeAddr: "deb.debian.org:80",
	}
}

// WithEUID overrides the effective-uid source. Tests use this.
func (c *Checker) WithEUID(euid func() int) *Checker {
	c.euid = euid
	return c
}

// WithDialer overrides the network dialer. Tests use this.
func (c *Checker) WithDialer(dial func(network, address string, timeout time.Duration) (net.Conn, error)) *Checker {
	c.dial = dial
	return c
}

// Check runs every prerequisite against the given phase set.
// It returns all results plus a fatal PrerequisiteError if any failed.
func (c *Checker) Check(ctx context.Context, phases []provision.Phase, stateDir string) ([]CheckResult, error) {
	results := []CheckResult{
		c.checkPrivilege(),
		c.checkNetwork(),
		c.checkDiskSpace(stateDir),
		c.checkPhases(phases),
	}
	if c.MinDockerVersion != "" {
		results = append(results, c.checkDockerVersion(ctx))
	}

	var failed []string
	for _, r := range results {
		if r.Passed {
			c.logger.Debug(ctx, "prerequisite ok", ports.F("check", r.Name))
			continue
		}
		c.logger.Error(ctx, "prerequisite failed",
			ports.F("check", r.Name), ports.F("detail", r.Detail))
		failed = append(failed, fmt.Sprintf("%s (%s)", r.Name, r.Detail))
	}

	if len(failed) > 0 {
		return results, provision.NewPrerequisiteError(
			"prerequisites not met: "+strings.Join(failed, "; "), nil)
	}
	return results, nil
}

func (c *Checker) checkPrivilege() CheckResult {
	if c.euid() != 0 {
		return CheckResult{
			Name:   "privilege",
			Detail: "must run as root: provisioning mutates boot config, services and containers",
		}
	}
	return CheckResult{Name: "privilege", Passed: true, Detail: "running as root"}
}

func (c *Checker) checkNetwork() CheckResult {
	conn, err := c.dial("tcp", c.NetProbeAddr, 5*time.Second)
	if err != nil {
		return CheckResult{
			Name:   "network",
			Detail: fmt.Sprintf("cannot reach %s: %v", c.NetProbeAddr, err),
		}
	}
	_ = conn.Close()
	return CheckResult{Name: "network", Passed: true, Detail: "reached " + c.NetProbeAddr}
}

func (c *Checker) checkDiskSpace(stateDir string) CheckResult {
	free, err := c.disk.FreeBytes(stateDir)
	if err != nil {
		return CheckResult{Name: "disk-space", Detail: fmt.Sprintf("cannot stat %s: %v", stateDir, err)}
	}
	if free < c.MinFreeBytes {
		return CheckResult{
			Name: "disk-space",
			Detail: fmt.Sprintf("%d MiB free, need %d MiB",
				free>>20, c.MinFreeBytes>>20),
		}
	}
	return CheckResult{Name: "disk-space", Passed: true, Detail: fmt.Sprintf("%d MiB free", free>>20)}
}

// checkPhases verifies every phase's entry points are present and
// invokable before anything runs.
func (c *Checker) checkPhases(phases []provision.Phase) CheckResult {
	for _, phase := range phases {
		if len(phase.Steps) == 0 {
			return CheckResult{Name: "phases", Detail: fmt.Sprintf("phase %q has no steps", phase.Name)}
		}
		for _, step := range phase.Steps {
			if step.Run == nil {
				return CheckResult{
					Name:   "phases",
					Detail: fmt.Sprintf("phase %q step %q has no entry point", phase.Name, step.ID),
				}
			}
		}
	}
	return CheckResult{Name: "phases", Passed: true, Detail: fmt.Sprintf("%d phases registered", len(phases))}
}

var dockerVersionPattern = regexp.MustCompile(`Docker version ([0-9]+\.[0-9]+\.[0-9]+)`)

func (c *Checker) checkDockerVersion(ctx context.Context) CheckResult {
	result, err := c.runner.Run(ctx, "docker", "--version")
	if err != nil || !result.Success() {
		return CheckResult{Name: "docker-version", Detail: "docker binary not found or not runnable"}
	}

	m := dockerVersionPattern.FindStringSubmatch(result.Stdout)
	if m == nil {
		return CheckResult{Name: "docker-version", Detail: "cannot parse docker version output"}
	}

	version := "v" + m[1]
	if semver.Compare(version, c.MinDockerVersion) < 0 {
		return CheckResult{
			Name:   "docker-version",
			Detail: fmt.Sprintf("docker %s is older than required %s", version, c.MinDockerVersion),
		}
	}
	return CheckResult{Name: "docker-version", Passed: true, Detail: "docker " + version}
}
