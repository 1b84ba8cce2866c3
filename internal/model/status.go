package model

// Status is the outcome of a readiness check.
type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
	StatusWarn Status = "WARN"
	// StatusSkip is assigned to a check whose dependency did not pass;
	// its probe is never invoked.
	StatusSkip Status = "SKIP"
)

// Probe is the immediate outcome of running a single check's probe.
type Probe struct {
	Status Status `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Pass returns a passing probe outcome.
func Pass(detail string) Probe { return Probe{Status: StatusPass, Detail: detail} }

// Fail returns a failing probe outcome.
func Fail(detail string) Probe { return Probe{Status: StatusFail, Detail: detail} }

// Warn returns a warning probe outcome. Warnings never affect the
// overall verdict.
func Warn(detail string) Probe { return Probe{Status: StatusWarn, Detail: detail} }

// Signal grades one section of a post-run effect report. Monitor probes
// degrade to warn/skip when their backing service is unavailable; they
// never fail the run they observe.
type Signal string

const (
	SignalOK   Signal = "ok"
	SignalWarn Signal = "warn"
	SignalSkip Signal = "skip"
	SignalInfo Signal = "info"
)
