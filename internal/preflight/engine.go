package preflight

import (
	"context"
	"fmt"
	"time"

	"match-scraper-ops/internal/model"
	"match-scraper-ops/internal/poll"
)

// Engine turns a failing check into a passing one by running its fix
// action and waiting for convergence. One engine is shared by all
// checks in a run; remediations never overlap.
type Engine struct {
	// Interval between convergence probes.
	Interval time.Duration
	// Timeout bounds convergence for actions that don't set their own.
	Timeout time.Duration
}

// NewEngine returns an engine with the given poll interval and default
// convergence timeout.
func NewEngine(interval, timeout time.Duration) *Engine {
	return &Engine{Interval: interval, Timeout: timeout}
}

// Attempt probes the check and, when it fails with remediation enabled
// and configured, starts the fix and polls for convergence. It reports
// the final probe result and whether remediation produced it. A check
// that already passes never has its fix started.
func (e *Engine) Attempt(ctx context.Context, c Check, fix bool) (model.Probe, bool) {
	p := c.Probe(ctx)
	if p.Status != model.StatusFail {
		return p, false
	}
	if !fix || c.Fix == nil {
		return p, false
	}

	act := c.Fix
	if err := act.Start(ctx); err != nil {
		return model.Fail(fmt.Sprintf("%s: %v", act.Desc, err)), false
	}

	timeout := act.Timeout
	if timeout <= 0 {
		timeout = e.Timeout
	}
	ok, waited := poll.Until(ctx, e.Interval, timeout, act.Converged)
	if !ok {
		return model.Fail(fmt.Sprintf("%s did not converge within %s", act.Desc, timeout)), false
	}
	return model.Pass(fmt.Sprintf("recovered via %s after %s", act.Desc, waited.Round(100*time.Millisecond))), true
}
