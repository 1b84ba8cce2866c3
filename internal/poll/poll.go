// Package poll provides the bounded polling loop shared by remediation
// convergence, queue drain, and pod readiness waits.
package poll

import (
	"context"
	"time"
)

// Until invokes probe every interval until it returns true, the ceiling
// elapses, or ctx is cancelled. The probe runs once immediately before
// the first sleep. It reports whether the probe succeeded and how long
// the wait took.
func Until(ctx context.Context, interval, ceiling time.Duration, probe func(context.Context) bool) (bool, time.Duration) {
	start := time.Now()
	deadline := start.Add(ceiling)

	if probe(ctx) {
		return true, time.Since(start)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false, time.Since(start)
		case <-ticker.C:
			if probe(ctx) {
				return true, time.Since(start)
			}
			if !time.Now().Before(deadline) {
				return false, time.Since(start)
			}
		}
	}
}
