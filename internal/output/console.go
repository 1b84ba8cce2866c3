// Package output renders readiness and effect reports for the terminal
// and writes the machine-readable JSON artifact.
package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"match-scraper-ops/internal/model"
)

// RenderRun prints one row per check followed by the tally line the
// operator (and CI) greps for.
func RenderRun(w io.Writer, rep *model.RunReport) {
	fmt.Fprintf(w, "Readiness (%s)\n", rep.Env)

	width := 0
	for _, cr := range rep.Checks {
		if len(cr.Name) > width {
			width = len(cr.Name)
		}
	}
	for _, cr := range rep.Checks {
		detail := cr.Detail
		if cr.Remediated {
			detail += " [remediated]"
		}
		fmt.Fprintf(w, "  %-4s  %-*s  %s\n", cr.Status, width, cr.Name, strings.TrimSpace(detail))
	}

	fmt.Fprintf(w, "\nPASS: %d  FAIL: %d  WARN: %d  SKIP: %d  (%s)\n",
		rep.Pass, rep.Fail, rep.Warn, rep.Skip, rep.Elapsed.Round(time.Millisecond))
}

// RenderFailures prints the cause list for a blocked pipeline.
func RenderFailures(w io.Writer, rep *model.RunReport) {
	failed := rep.Failed()
	if len(failed) == 0 {
		return
	}
	fmt.Fprintf(w, "blocking failures:\n")
	for _, cr := range failed {
		fmt.Fprintf(w, "  %s: %s\n", cr.Name, cr.Detail)
	}
}

// RenderEffect prints the post-run evidence sections. Signals other
// than ok are labelled so a degraded observation is visible at a
// glance.
func RenderEffect(w io.Writer, eff *model.EffectReport) {
	fmt.Fprintf(w, "Post-run effects\n")
	fmt.Fprintf(w, "  queue  %s\n", signalLine(eff.Queue.Signal, eff.Queue.Detail))
	fmt.Fprintf(w, "  log    %s\n", signalLine(eff.Log.Signal, logDetail(eff.Log)))
	fmt.Fprintf(w, "  store  %s\n", signalLine(eff.Store.Signal, eff.Store.Detail))
	fmt.Fprintf(w, "  exit   %d\n", eff.ExitCode)
}

func signalLine(sig model.Signal, detail string) string {
	if sig == model.SignalOK {
		return detail
	}
	return fmt.Sprintf("[%s] %s", strings.ToUpper(string(sig)), detail)
}

// logDetail appends the per-category counts to the log delta detail,
// in stable order.
func logDetail(l model.LogDelta) string {
	if len(l.Window.Counts) == 0 {
		return l.Detail
	}
	cats := make([]string, 0, len(l.Window.Counts))
	for c := range l.Window.Counts {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	parts := make([]string, 0, len(cats))
	for _, c := range cats {
		parts = append(parts, fmt.Sprintf("%s=%d", c, l.Window.Counts[c]))
	}
	return fmt.Sprintf("%s (%s)", l.Detail, strings.Join(parts, " "))
}
