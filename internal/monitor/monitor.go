// Package monitor samples downstream side effects after a local
// dispatch: broker queue drain, new classified worker-log lines, and
// recently-created store rows. Every probe degrades to warn/skip when
// its backing service is unavailable; a successful dispatch is never
// masked by a failed observation.
package monitor

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"match-scraper-ops/internal/broker"
	"match-scraper-ops/internal/model"
	"match-scraper-ops/internal/poll"
	"match-scraper-ops/internal/store"
)

// logCategories is the classification table for worker-log lines:
// first matching keyword wins, scanned in this order.
var logCategories = []struct {
	name    string
	keyword string
}{
	{"created", "created"},
	{"updated", "updated"},
	{"skipped", "skipped"},
	{"error", "error"},
	{"succeeded", "succeeded"},
}

// Monitor holds the collaborator handles and tunables for post-run
// observation. A nil Broker or Store turns the matching probe into a
// skip.
type Monitor struct {
	Broker broker.Admin
	Store  store.Querier

	Queues  []string
	LogPath string
	Source  string

	DrainInterval time.Duration
	DrainCeiling  time.Duration
	RecentWindow  time.Duration
}

// CaptureMarkers records run context immediately before a dispatch. A
// missing log file counts as zero lines.
func (m *Monitor) CaptureMarkers() model.Markers {
	lines, err := countLines(m.LogPath)
	if err != nil {
		lines = 0
	}
	return model.Markers{LogLines: lines, StartedAt: time.Now()}
}

// Observe runs the three effect probes and bundles them with the
// dispatcher's exit code. The probes are independent; none of them can
// abort the report.
func (m *Monitor) Observe(ctx context.Context, markers model.Markers, exitCode int) model.EffectReport {
	return model.EffectReport{
		Queue:    m.drain(ctx),
		Log:      m.logDiff(markers),
		Store:    m.storeSample(ctx),
		ExitCode: exitCode,
	}
}

// drain snapshots the queues and, while messages are pending, polls
// until the total reaches zero or the ceiling passes. Leftover messages
// are a warn; downstream processing may simply be slow.
func (m *Monitor) drain(ctx context.Context) model.QueueDrain {
	if m.Broker == nil {
		return model.QueueDrain{Signal: model.SignalSkip, Detail: "broker not configured"}
	}

	start := time.Now()
	snap, err := m.Broker.Snapshot(ctx, m.Queues)
	if err != nil {
		return model.QueueDrain{Signal: model.SignalSkip, Detail: fmt.Sprintf("broker unavailable: %v", err)}
	}

	d := model.QueueDrain{
		Initial:   snap.Total(),
		Remaining: snap.Total(),
		Consumers: snap.Consumers,
		Samples:   1,
	}
	if d.Initial == 0 {
		d.Signal = model.SignalOK
		d.Detail = "queues already empty"
		d.Elapsed = time.Since(start)
		return d
	}

	var pollErr error
	poll.Until(ctx, m.DrainInterval, m.DrainCeiling, func(ctx context.Context) bool {
		s, err := m.Broker.Snapshot(ctx, m.Queues)
		if err != nil {
			pollErr = err
			return true
		}
		d.Samples++
		d.Remaining = s.Total()
		d.Consumers = s.Consumers
		return d.Remaining == 0
	})
	d.Elapsed = time.Since(start)

	switch {
	case pollErr != nil:
		d.Signal = model.SignalWarn
		d.Detail = fmt.Sprintf("broker became unavailable during drain: %v", pollErr)
	case d.Remaining == 0:
		d.Signal = model.SignalOK
		d.Detail = fmt.Sprintf("drained %d messages in %s", d.Initial, d.Elapsed.Round(100*time.Millisecond))
	default:
		d.Signal = model.SignalWarn
		d.Detail = fmt.Sprintf("%d of %d messages still pending after %s", d.Remaining, d.Initial, m.DrainCeiling)
	}
	return d
}

// logDiff classifies every worker-log line written after the marker
// offset. Zero new lines is a warn: the worker may not have received
// any work.
func (m *Monitor) logDiff(markers model.Markers) model.LogDelta {
	f, err := os.Open(m.LogPath)
	if err != nil {
		return model.LogDelta{Signal: model.SignalSkip, Detail: fmt.Sprintf("log file %s not readable", m.LogPath)}
	}
	defer f.Close()

	window := model.LogWindow{StartLine: markers.LogLines, Counts: map[string]int{}}
	line := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line++
		if line <= window.StartLine {
			continue
		}
		classify(sc.Text(), window.Counts)
	}
	window.EndLine = line

	// A shorter file means the log rotated under us; everything in the
	// current file is new.
	if window.EndLine < window.StartLine {
		f.Seek(0, 0)
		window = model.LogWindow{Counts: map[string]int{}}
		sc = bufio.NewScanner(f)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			window.EndLine++
			classify(sc.Text(), window.Counts)
		}
		return model.LogDelta{
			Signal: model.SignalWarn,
			Window: window,
			Detail: fmt.Sprintf("log rotated during run; classified all %d lines", window.EndLine),
		}
	}

	if window.NewLines() == 0 {
		return model.LogDelta{Signal: model.SignalWarn, Window: window, Detail: "no new worker log lines"}
	}
	return model.LogDelta{
		Signal: model.SignalOK,
		Window: window,
		Detail: fmt.Sprintf("%d new lines", window.NewLines()),
	}
}

func classify(line string, counts map[string]int) {
	lower := strings.ToLower(line)
	for _, cat := range logCategories {
		if strings.Contains(lower, cat.keyword) {
			counts[cat.name]++
			return
		}
	}
}

// storeSample counts rows attributed to the workload's source tag. No
// recent rows is informational: the worker skips records it already
// knows.
func (m *Monitor) storeSample(ctx context.Context) model.StoreSample {
	if m.Store == nil {
		return model.StoreSample{Signal: model.SignalSkip, Detail: "store not configured"}
	}
	if err := m.Store.Ping(ctx); err != nil {
		return model.StoreSample{Signal: model.SignalSkip, Detail: fmt.Sprintf("store unavailable: %v", err)}
	}

	total, recent, err := m.Store.SourceCounts(ctx, m.Source, m.RecentWindow)
	if err != nil {
		return model.StoreSample{Signal: model.SignalSkip, Detail: fmt.Sprintf("store query failed: %v", err)}
	}

	s := model.StoreSample{TotalRows: total, RecentRows: recent, Window: m.RecentWindow}
	if recent == 0 {
		s.Signal = model.SignalInfo
		s.Detail = fmt.Sprintf("no rows in last %s, matches likely already known", m.RecentWindow)
	} else {
		s.Signal = model.SignalOK
		s.Detail = fmt.Sprintf("%d rows in last %s (%d total for %s)", recent, m.RecentWindow, total, m.Source)
	}
	return s
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		n++
	}
	return n, sc.Err()
}
