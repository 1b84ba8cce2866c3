package preflight

import (
	"context"
	"fmt"
	"time"

	"match-scraper-ops/internal/model"
)

// Runner executes a registry's checks in dependency order and folds the
// results into a RunReport. It never aborts early: every check is
// probed or skipped so the report shows the full picture.
type Runner struct {
	Engine *Engine
	// Fix enables remediation for checks that carry one.
	Fix bool
}

// Run executes every check and returns the aggregated report. Checks
// whose dependencies did not PASS are skipped without probing; a final
// gate check is skipped whenever any earlier check failed.
func (r *Runner) Run(ctx context.Context, reg *Registry, env string) *model.RunReport {
	rep := &model.RunReport{Env: env, StartedAt: time.Now()}

	for _, c := range reg.Order() {
		if c.FinalGate && rep.Fail > 0 {
			rep.Add(model.CheckResult{Name: c.Name, Status: model.StatusSkip, Detail: "prerequisites failed"})
			continue
		}
		if dep, ok := blockedBy(rep, c); ok {
			rep.Add(model.CheckResult{Name: c.Name, Status: model.StatusSkip, Detail: fmt.Sprintf("dependency %s did not pass", dep)})
			continue
		}

		start := time.Now()
		p, remediated := r.Engine.Attempt(ctx, c, r.Fix)
		rep.Add(model.CheckResult{
			Name:       c.Name,
			Status:     p.Status,
			Detail:     p.Detail,
			Elapsed:    time.Since(start),
			Remediated: remediated,
		})
	}

	rep.Elapsed = time.Since(rep.StartedAt)
	return rep
}

// blockedBy returns the first dependency of c that did not PASS.
func blockedBy(rep *model.RunReport, c Check) (string, bool) {
	for _, dep := range c.DependsOn {
		if rep.Result(dep) != model.StatusPass {
			return dep, true
		}
	}
	return "", false
}
