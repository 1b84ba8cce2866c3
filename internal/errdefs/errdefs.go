// Package errdefs carries the orchestrator's error taxonomy. Gating
// errors (config, external) abort the pipeline with remediation advice;
// probe and timeout errors are folded into check results instead.
package errdefs

import (
	"errors"
	"fmt"
)

// Kind classifies an orchestrator error.
type Kind string

const (
	// KindConfig marks a missing required variable, context, or schedule
	// definition. Never retried; surfaced immediately with advice.
	KindConfig Kind = "config"
	// KindProbe marks a check probe that raised or found its target
	// unreachable. Counted as FAIL and eligible for remediation.
	KindProbe Kind = "probe"
	// KindTimeout marks a convergence or readiness wait that exceeded
	// its ceiling.
	KindTimeout Kind = "timeout"
	// KindExternal marks a failed collaborator call (container runtime,
	// orchestration API, broker, store).
	KindExternal Kind = "external"
)

// Error is the orchestrator error type: a kind, the failing operation,
// optional remediation advice, and the wrapped cause.
type Error struct {
	Kind   Kind
	Op     string
	Advice string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Op != "":
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Op
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Config builds a config error with remediation advice.
func Config(op, advice string) *Error {
	return &Error{Kind: KindConfig, Op: op, Advice: advice}
}

// Configf builds a config error from a format string.
func Configf(advice, format string, args ...any) *Error {
	return &Error{Kind: KindConfig, Op: fmt.Sprintf(format, args...), Advice: advice}
}

// External wraps a failed collaborator call.
func External(op string, err error) *Error {
	return &Error{Kind: KindExternal, Op: op, Err: err}
}

// Timeout builds a timeout error for a wait that exceeded its ceiling.
func Timeout(op string) *Error {
	return &Error{Kind: KindTimeout, Op: op}
}

// Probe wraps an unreachable or raising check probe.
func Probe(op string, err error) *Error {
	return &Error{Kind: KindProbe, Op: op, Err: err}
}

// KindOf extracts the Kind from err, or "" when err is not an
// orchestrator error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// AdviceOf extracts remediation advice from err, if any.
func AdviceOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Advice
	}
	return ""
}

// IsConfig reports whether err is a config error.
func IsConfig(err error) bool { return KindOf(err) == KindConfig }

// IsTimeout reports whether err is a timeout error.
func IsTimeout(err error) bool { return KindOf(err) == KindTimeout }

// IsExternal reports whether err is an external-tool error.
func IsExternal(err error) bool { return KindOf(err) == KindExternal }
