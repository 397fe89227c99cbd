package validate

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/piforge/piforge/internal/ports"
)

// SystemProbes evaluates predicates against the real system: systemctl
// for units, a TCP dial for ports, a GET for HTTP endpoints.
type SystemProbes struct {
	runner      ports.CommandRunner
	dialTimeout time.Duration
	httpClient  *http.Client
}

// NewSystemProbes creates SystemProbes.
func NewSystemProbes(runner ports.CommandRunner) *SystemProbes {
	return &SystemProbes{
		runner:      runner,
		dialTimeout: 2 * time.Second,
		httpClient:  &http.Client{Timeout: 5 * time.Second},
	}
}

// ServiceActive reports whether systemctl considers the unit active.
func (p *SystemProbes) ServiceActive(ctx context.Context, unit string) bool {
	result, err := p.runner.Run(ctx, "systemctl", "is-active", "--quiet", unit)
	if err != nil {
		return false
	}
	return result.Success()
}

// PortListening reports whether the TCP address accepts connections.
// The dial honours the caller's deadline on top of its own timeout.
func (p *SystemProbes) PortListening(ctx context.Context, address string) bool {
	d := net.Dialer{Timeout: p.dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// HTTPReachable reports whether the endpoint answers at all. Any HTTP
// status counts: a 401 from a web UI still proves the service is up.
func (p *SystemProbes) HTTPReachable(ctx context.Context, url string) bool {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "http://" + url
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return true
}

// Ensure SystemProbes implements Probes.
var _ Probes = (*SystemProbes)(nil)
