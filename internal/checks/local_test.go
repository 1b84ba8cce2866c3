package checks

import (
	"context"
	"errors"
	"testing"
	"time"

	"match-scraper-ops/internal/config"
	"match-scraper-ops/internal/model"
	"match-scraper-ops/internal/preflight"
	"match-scraper-ops/internal/proxy"
)

type fakeRuntime struct {
	daemonErr error
	running   map[string]bool
	started   []string
}

func (f *fakeRuntime) DaemonReady(context.Context) error { return f.daemonErr }

func (f *fakeRuntime) Running(_ context.Context, name string) (bool, error) {
	return f.running[name], nil
}

func (f *fakeRuntime) Start(_ context.Context, name string) error {
	f.started = append(f.started, name)
	f.running[name] = true
	return nil
}

type fakeBroker struct {
	pingErr   error
	snap      model.QueueSnapshot
	snapErr   error
	snapshots int
}

func (f *fakeBroker) Ping(context.Context) error { return f.pingErr }

func (f *fakeBroker) Snapshot(context.Context, []string) (model.QueueSnapshot, error) {
	f.snapshots++
	return f.snap, f.snapErr
}

type fakeStore struct{ pingErr error }

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

func (f *fakeStore) SourceCounts(context.Context, string, time.Duration) (int, int, error) {
	return 0, 0, nil
}

type fakeProxy struct {
	st  *proxy.Status
	err error
}

func (f *fakeProxy) Fetch() (*proxy.Status, error) { return f.st, f.err }

type fakeAgent struct {
	installErr error
	checkErr   error
	checkedEnv string
}

func (f *fakeAgent) Installed(context.Context) error { return f.installErr }

func (f *fakeAgent) HealthCheck(_ context.Context, env string) error {
	f.checkedEnv = env
	return f.checkErr
}

func localConfig() *config.Config {
	return &config.Config{
		Env:             config.EnvLocal,
		Model:           "claude-haiku-4-5-20251001",
		MinTokenBudget:  5000,
		Queues:          []string{"matches"},
		BrokerContainer: "match-rabbitmq",
		WorkerContainer: "match-worker",
		ConvergeTimeout: 50 * time.Millisecond,
	}
}

func healthyLocalDeps() Deps {
	return Deps{
		Cfg: localConfig(),
		Runtime: &fakeRuntime{running: map[string]bool{
			"match-rabbitmq": true,
			"match-worker":   true,
		}},
		Broker: &fakeBroker{snap: model.QueueSnapshot{
			Pending:   map[string]int{"matches": 0},
			Consumers: 1,
		}},
		Store: &fakeStore{},
		Proxy: &fakeProxy{st: &proxy.Status{NoRadiusSession: true}},
		Agent: &fakeAgent{},
	}
}

func run(t *testing.T, d Deps, fix bool) *model.RunReport {
	t.Helper()
	reg, err := Local(d)
	if err != nil {
		t.Fatalf("Local registry: %v", err)
	}
	r := &preflight.Runner{Engine: preflight.NewEngine(time.Millisecond, 50*time.Millisecond), Fix: fix}
	return r.Run(context.Background(), reg, "local")
}

func TestLocalAllChecksPass(t *testing.T) {
	rep := run(t, healthyLocalDeps(), false)

	if rep.Pass != 9 {
		for _, cr := range rep.Checks {
			t.Logf("%s: %s (%s)", cr.Name, cr.Status, cr.Detail)
		}
		t.Fatalf("pass = %d, want 9", rep.Pass)
	}
	if !rep.OverallPass() {
		t.Errorf("OverallPass = false")
	}
}

func TestLocalIndependentFailureIsIsolated(t *testing.T) {
	d := healthyLocalDeps()
	d.Store = &fakeStore{pingErr: errors.New("dial tcp 127.0.0.1:54332: connection refused")}
	rep := run(t, d, false)

	if rep.Result("database") != model.StatusFail {
		t.Fatalf("database = %s, want FAIL", rep.Result("database"))
	}
	// database has no dependents: every other check is untouched.
	if rep.Pass != 8 || rep.Fail != 1 || rep.Skip != 0 {
		for _, cr := range rep.Checks {
			t.Logf("%s: %s (%s)", cr.Name, cr.Status, cr.Detail)
		}
		t.Errorf("pass/fail/skip = %d/%d/%d, want 8/1/0", rep.Pass, rep.Fail, rep.Skip)
	}
	if rep.OverallPass() {
		t.Errorf("OverallPass = true with a FAIL")
	}
}

func TestLocalBrokerOutageCascades(t *testing.T) {
	d := healthyLocalDeps()
	d.Runtime.(*fakeRuntime).running["match-rabbitmq"] = false
	d.Broker = &fakeBroker{pingErr: errors.New("refused"), snapErr: errors.New("refused")}
	rep := run(t, d, false)

	if rep.Result("rabbitmq-container") != model.StatusFail {
		t.Fatalf("rabbitmq-container = %s, want FAIL", rep.Result("rabbitmq-container"))
	}
	if rep.Result("rabbitmq-broker") != model.StatusSkip {
		t.Errorf("rabbitmq-broker = %s, want SKIP", rep.Result("rabbitmq-broker"))
	}
	if rep.Result("worker-consumers") != model.StatusSkip {
		t.Errorf("worker-consumers = %s, want SKIP", rep.Result("worker-consumers"))
	}
	if rep.Result("agent-selftest") != model.StatusSkip {
		t.Errorf("agent-selftest = %s, want SKIP", rep.Result("agent-selftest"))
	}
	// Independent branches still report.
	if rep.Result("proxy-status") != model.StatusPass || rep.Result("database") != model.StatusPass {
		t.Errorf("independent checks affected by broker outage")
	}
}

func TestLocalFixRestartsBrokerContainer(t *testing.T) {
	d := healthyLocalDeps()
	rt := d.Runtime.(*fakeRuntime)
	rt.running["match-rabbitmq"] = false
	rep := run(t, d, true)

	if got := rep.Result("rabbitmq-container"); got != model.StatusPass {
		t.Fatalf("rabbitmq-container = %s, want PASS after fix", got)
	}
	if len(rt.started) != 1 || rt.started[0] != "match-rabbitmq" {
		t.Errorf("started = %v, want exactly the broker container", rt.started)
	}
	if !rep.OverallPass() {
		t.Errorf("OverallPass = false after successful remediation")
	}
	for _, cr := range rep.Checks {
		if cr.Name == "rabbitmq-container" && !cr.Remediated {
			t.Errorf("rabbitmq-container not marked remediated")
		}
	}
}

func TestLocalZeroConsumersWarnsButGateRuns(t *testing.T) {
	d := healthyLocalDeps()
	d.Broker = &fakeBroker{snap: model.QueueSnapshot{Pending: map[string]int{"matches": 0}, Consumers: 0}}
	agent := d.Agent.(*fakeAgent)
	rep := run(t, d, false)

	if rep.Result("worker-consumers") != model.StatusWarn {
		t.Fatalf("worker-consumers = %s, want WARN", rep.Result("worker-consumers"))
	}
	// WARN is not a failure: the self-test still runs, against the
	// selected environment.
	if rep.Result("agent-selftest") != model.StatusPass {
		t.Errorf("agent-selftest = %s, want PASS", rep.Result("agent-selftest"))
	}
	if agent.checkedEnv != "local" {
		t.Errorf("self-test env = %q, want local", agent.checkedEnv)
	}
	if !rep.OverallPass() {
		t.Errorf("OverallPass = false with only a WARN")
	}
}
