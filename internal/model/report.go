package model

import "time"

// CheckResult is one row of a readiness report.
type CheckResult struct {
	Name       string        `json:"name"`
	Status     Status        `json:"status"`
	Detail     string        `json:"detail,omitempty"`
	Elapsed    time.Duration `json:"elapsed,omitempty"`
	Remediated bool          `json:"remediated,omitempty"`
}

// RunReport aggregates one readiness run. It is built once by folding
// over check results and is read-only after the run completes.
type RunReport struct {
	Env       string        `json:"env"`
	StartedAt time.Time     `json:"startedAt"`
	Elapsed   time.Duration `json:"elapsed"`
	Checks    []CheckResult `json:"checks"`
	Pass      int           `json:"pass"`
	Fail      int           `json:"fail"`
	Warn      int           `json:"warn"`
	Skip      int           `json:"skip"`
}

// Add appends a result row and updates the tallies.
func (r *RunReport) Add(cr CheckResult) {
	r.Checks = append(r.Checks, cr)
	switch cr.Status {
	case StatusPass:
		r.Pass++
	case StatusFail:
		r.Fail++
	case StatusWarn:
		r.Warn++
	case StatusSkip:
		r.Skip++
	}
}

// OverallPass reports the run verdict. WARN and SKIP never affect it.
func (r *RunReport) OverallPass() bool { return r.Fail == 0 }

// Failed returns the failing rows, for cause lists.
func (r *RunReport) Failed() []CheckResult {
	var out []CheckResult
	for _, cr := range r.Checks {
		if cr.Status == StatusFail {
			out = append(out, cr)
		}
	}
	return out
}

// Result returns the recorded status for a named check, or "" if the
// check has not run yet.
func (r *RunReport) Result(name string) Status {
	for _, cr := range r.Checks {
		if cr.Name == name {
			return cr.Status
		}
	}
	return ""
}
