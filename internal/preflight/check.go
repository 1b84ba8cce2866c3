// Package preflight runs named readiness checks in dependency order,
// optionally remediating failures by starting the missing dependency
// and polling for convergence.
package preflight

import (
	"context"
	"time"

	"match-scraper-ops/internal/model"
)

// Check is a single named readiness test. Checks are immutable after
// registration; identity is the name.
type Check struct {
	// Name uniquely identifies the check within a registry.
	Name string
	// DependsOn lists checks that must PASS before this one runs.
	// A dependency that did not PASS turns this check into SKIP
	// without invoking Probe.
	DependsOn []string
	// Probe inspects the target and reports its state.
	Probe func(ctx context.Context) model.Probe
	// Fix, when set, is attempted after a failing probe if the caller
	// enabled remediation.
	Fix *Action
	// FinalGate marks a check that exercises the workload itself and
	// therefore runs only when every earlier check passed.
	FinalGate bool
}

// Action remediates a failing check: Start kicks off the dependency
// once, then Converged is polled until it reports true or Timeout
// elapses. Start must be harmless when the dependency is already
// mid-start.
type Action struct {
	// Desc names the action in operator-facing detail text,
	// e.g. "docker start match-rabbitmq".
	Desc string
	// Start launches the dependency. An error fails the check
	// immediately without polling.
	Start func(ctx context.Context) error
	// Converged reports whether the dependency has come up.
	Converged func(ctx context.Context) bool
	// Timeout bounds the convergence wait. Zero means the engine
	// default.
	Timeout time.Duration
}
