package preflight

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"match-scraper-ops/internal/model"
)

func TestAttemptPassingCheckNeverStartsFix(t *testing.T) {
	started := 0
	c := Check{
		Name:  "broker",
		Probe: func(context.Context) model.Probe { return model.Pass("running") },
		Fix: &Action{
			Desc:      "docker start match-rabbitmq",
			Start:     func(context.Context) error { started++; return nil },
			Converged: func(context.Context) bool { return true },
		},
	}
	e := NewEngine(time.Millisecond, time.Second)
	p, remediated := e.Attempt(context.Background(), c, true)
	if p.Status != model.StatusPass {
		t.Fatalf("status = %s, want PASS", p.Status)
	}
	if started != 0 {
		t.Errorf("start invoked %d times on a passing check, want 0", started)
	}
	if remediated {
		t.Errorf("remediated = true, want false")
	}
}

func TestAttemptFixDisabledReturnsFail(t *testing.T) {
	started := 0
	c := Check{
		Name:  "broker",
		Probe: func(context.Context) model.Probe { return model.Fail("not running") },
		Fix: &Action{
			Desc:      "docker start match-rabbitmq",
			Start:     func(context.Context) error { started++; return nil },
			Converged: func(context.Context) bool { return true },
		},
	}
	e := NewEngine(time.Millisecond, time.Second)
	p, _ := e.Attempt(context.Background(), c, false)
	if p.Status != model.StatusFail {
		t.Fatalf("status = %s, want FAIL with fix disabled", p.Status)
	}
	if started != 0 {
		t.Errorf("start invoked with fix disabled")
	}
}

func TestAttemptConvergesAfterThreePolls(t *testing.T) {
	polls := 0
	starts := 0
	c := Check{
		Name:  "worker",
		Probe: func(context.Context) model.Probe { return model.Fail("container stopped") },
		Fix: &Action{
			Desc:  "docker start match-worker",
			Start: func(context.Context) error { starts++; return nil },
			Converged: func(context.Context) bool {
				polls++
				return polls >= 3
			},
			Timeout: time.Second,
		},
	}
	e := NewEngine(time.Millisecond, time.Second)
	p, remediated := e.Attempt(context.Background(), c, true)
	if p.Status != model.StatusPass {
		t.Fatalf("status = %s (%s), want PASS after convergence", p.Status, p.Detail)
	}
	if !remediated {
		t.Errorf("remediated = false, want true")
	}
	if starts != 1 {
		t.Errorf("start invoked %d times, want exactly 1", starts)
	}
	if polls != 3 {
		t.Errorf("convergence polls = %d, want 3", polls)
	}
}

func TestAttemptTimeoutStaysBounded(t *testing.T) {
	c := Check{
		Name:  "broker",
		Probe: func(context.Context) model.Probe { return model.Fail("not running") },
		Fix: &Action{
			Desc:      "docker start match-rabbitmq",
			Start:     func(context.Context) error { return nil },
			Converged: func(context.Context) bool { return false },
			Timeout:   20 * time.Millisecond,
		},
	}
	e := NewEngine(5*time.Millisecond, time.Second)
	begin := time.Now()
	p, remediated := e.Attempt(context.Background(), c, true)
	elapsed := time.Since(begin)

	if p.Status != model.StatusFail {
		t.Fatalf("status = %s, want FAIL on timeout", p.Status)
	}
	if remediated {
		t.Errorf("remediated = true on timeout, want false")
	}
	if !strings.Contains(p.Detail, "did not converge within") {
		t.Errorf("detail = %q, want convergence timeout note", p.Detail)
	}
	// Must give up within one polling interval of the deadline.
	if elapsed > 20*time.Millisecond+2*(5*time.Millisecond) {
		t.Errorf("attempt overran: elapsed = %v for 20ms timeout at 5ms interval", elapsed)
	}
}

func TestAttemptStartErrorFailsWithoutPolling(t *testing.T) {
	polls := 0
	c := Check{
		Name:  "worker",
		Probe: func(context.Context) model.Probe { return model.Fail("container stopped") },
		Fix: &Action{
			Desc:      "docker start match-worker",
			Start:     func(context.Context) error { return errors.New("no such container") },
			Converged: func(context.Context) bool { polls++; return true },
		},
	}
	e := NewEngine(time.Millisecond, time.Second)
	p, remediated := e.Attempt(context.Background(), c, true)
	if p.Status != model.StatusFail {
		t.Fatalf("status = %s, want FAIL on start error", p.Status)
	}
	if !strings.Contains(p.Detail, "no such container") {
		t.Errorf("detail = %q, want start error surfaced", p.Detail)
	}
	if polls != 0 {
		t.Errorf("convergence polled %d times after start error, want 0", polls)
	}
	if remediated {
		t.Errorf("remediated = true, want false")
	}
}

func TestAttemptWarnIsNotRemediated(t *testing.T) {
	started := 0
	c := Check{
		Name:  "consumers",
		Probe: func(context.Context) model.Probe { return model.Warn("0 consumers") },
		Fix: &Action{
			Desc:  "restart worker",
			Start: func(context.Context) error { started++; return nil },
		},
	}
	e := NewEngine(time.Millisecond, time.Second)
	p, _ := e.Attempt(context.Background(), c, true)
	if p.Status != model.StatusWarn {
		t.Fatalf("status = %s, want WARN passed through", p.Status)
	}
	if started != 0 {
		t.Errorf("start invoked for a WARN probe")
	}
}
