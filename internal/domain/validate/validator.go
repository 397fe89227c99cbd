// Package validate confirms, within a bounded time, that a mutation
// produced an observable effect.
package validate

import (
	"context"
	"time"

	"github.com/piforge/piforge/internal/ports"
)

// CheckKind selects the predicate a check evaluates.
type CheckKind string

const (
	// ServiceActive asks the service manager whether a unit is active.
	ServiceActive CheckKind = "service-active"
	// PortListening dials a TCP address until it accepts connections.
	PortListening CheckKind = "port-listening"
	// HTTPReachable polls an HTTP endpoint until it responds.
	HTTPReachable CheckKind = "http-reachable"
)

// Check describes one bounded-time validation.
type Check struct {
	Kind CheckKind
	// Target is a unit name, host:port address, or URL depending on Kind.
	Target string
	// Capability names what is being verified, for the run summary.
	Capability string
	Timeout    time.Duration
	Interval   time.Duration
}

// Outcome reports whether the check's predicate became true in time.
// A timeout is not fatal: the capability is surfaced as unverified.
type Outcome struct {
	Ready    bool
	TimedOut bool
	Elapsed  time.Duration
}

// Probes evaluates check predicates against the live system.
type Probes interface {
	ServiceActive(ctx context.Context, unit string) bool
	PortListening(ctx context.Context, address string) bool
	HTTPReachable(ctx context.Context, url string) bool
}

// Validator polls a check's predicate at a fixed interval until it
// succeeds or the cumulative elapsed time exceeds the timeout. Poll is
// guaranteed to return within timeout plus one interval.
type Validator struct {
	probes Probes
	logger ports.Logger
}

// NewValidator creates a Validator.
func NewValidator(probes Probes, logger ports.Logger) *Validator {
	return &Validator{probes: probes, logger: logger}
}

// Poll runs the check to completion. Every predicate evaluation runs
// under the poll deadline, so a slow probe (an HTTP request against a
// half-started service, say) cannot push the return past the bound.
func (v *Validator) Poll(ctx context.Context, check Check) Outcome {
	start := time.Now()
	deadline := start.Add(check.Timeout)

	for {
		attemptCtx, cancel := context.WithDeadline(ctx, deadline)
		ready := v.evaluate(attemptCtx, check)
		cancel()
		if ready {
			return Outcome{Ready: true, Elapsed: time.Since(start)}
		}

		if time.Now().After(deadline) || ctx.Err() != nil {
			v.logger.Warn(ctx, "validation timed out",
				ports.F("kind", string(check.Kind)),
				ports.F("target", check.Target),
				ports.F("timeout", check.Timeout.String()))
			return Outcome{TimedOut: true, Elapsed: time.Since(start)}
		}

		select {
		case <-ctx.Done():
			return Outcome{TimedOut: true, Elapsed: time.Since(start)}
		case <-time.After(check.Interval):
		}
	}
}

func (v *Validator) evaluate(ctx context.Context, check Check) bool {
	switch check.Kind {
	case ServiceActive:
		return v.probes.ServiceActive(ctx, check.Target)
	case PortListening:
		return v.probes.PortListening(ctx, check.Target)
	case HTTPReachable:
		return v.probes.HTTPReachable(ctx, check.Target)
	default:
		return false
	}
}
