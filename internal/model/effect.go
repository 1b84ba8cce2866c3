package model

import "time"

// QueueSnapshot maps queue name to pending-message count at a point in
// time. Snapshots are compared by total only; per-queue drift is not a
// signal in this design.
type QueueSnapshot struct {
	Pending   map[string]int `json:"pending"`
	Consumers int            `json:"consumers"`
	TakenAt   time.Time      `json:"takenAt"`
}

// Total sums pending counts across all queues.
func (s QueueSnapshot) Total() int {
	n := 0
	for _, c := range s.Pending {
		n += c
	}
	return n
}

// LogWindow classifies the log lines written between two offsets.
// Only lines strictly after StartLine are counted.
type LogWindow struct {
	StartLine int            `json:"startLine"`
	EndLine   int            `json:"endLine"`
	Counts    map[string]int `json:"counts"`
}

// NewLines is the number of lines in the window.
func (w LogWindow) NewLines() int { return w.EndLine - w.StartLine }

// Markers captures run context immediately before a local dispatch so
// the monitor can diff against it afterwards.
type Markers struct {
	LogLines  int       `json:"logLines"`
	StartedAt time.Time `json:"startedAt"`
}

// QueueDrain reports how the broker queues drained after a dispatch.
type QueueDrain struct {
	Signal    Signal        `json:"signal"`
	Initial   int           `json:"initial"`
	Remaining int           `json:"remaining"`
	Consumers int           `json:"consumers"`
	Samples   int           `json:"samples"`
	Elapsed   time.Duration `json:"elapsed"`
	Detail    string        `json:"detail,omitempty"`
}

// LogDelta reports the classified worker-log lines produced by a run.
type LogDelta struct {
	Signal Signal    `json:"signal"`
	Window LogWindow `json:"window"`
	Detail string    `json:"detail,omitempty"`
}

// StoreSample reports row counts attributable to the workload's source
// tag, total and within the recency window.
type StoreSample struct {
	Signal     Signal        `json:"signal"`
	TotalRows  int           `json:"totalRows"`
	RecentRows int           `json:"recentRows"`
	Window     time.Duration `json:"window"`
	Detail     string        `json:"detail,omitempty"`
}

// EffectReport is the post-run evidence bundle for a local dispatch:
// queue drain, log delta, store sample, and the dispatcher's exit code.
type EffectReport struct {
	Queue    QueueDrain  `json:"queue"`
	Log      LogDelta    `json:"log"`
	Store    StoreSample `json:"store"`
	ExitCode int         `json:"exitCode"`
}
