package checks

import (
	"context"
	"fmt"
	"strings"

	"match-scraper-ops/internal/model"
	"match-scraper-ops/internal/preflight"
	"match-scraper-ops/internal/proxy"
)

// Local builds the workstation registry. The pipeline checks come
// first, then the agent self-test gated on them; the proxy budget and
// database probes are dispatch-time concerns and are not prerequisites
// of the self-test.
func Local(d Deps) (*preflight.Registry, error) {
	return preflight.NewRegistry(
		dockerDaemon(d),
		rabbitmqContainer(d),
		rabbitmqBroker(d),
		workerContainer(d),
		workerConsumers(d),
		agentInstall(d),
		agentSelftest(d),
		proxyStatus(d),
		database(d),
	)
}

func dockerDaemon(d Deps) preflight.Check {
	return preflight.Check{
		Name: "docker-daemon",
		Probe: func(ctx context.Context) model.Probe {
			if err := d.Runtime.DaemonReady(ctx); err != nil {
				return model.Fail(fmt.Sprintf("daemon unreachable: %v (is docker running?)", err))
			}
			return model.Pass("daemon responding")
		},
	}
}

func rabbitmqContainer(d Deps) preflight.Check {
	name := d.Cfg.BrokerContainer
	return preflight.Check{
		Name:      "rabbitmq-container",
		DependsOn: []string{"docker-daemon"},
		Probe:     containerRunning(d, name),
		Fix: &preflight.Action{
			Desc:  "docker start " + name,
			Start: func(ctx context.Context) error { return d.Runtime.Start(ctx, name) },
			// Up means accepting AMQP connections, not just a running
			// process.
			Converged: func(ctx context.Context) bool { return d.Broker.Ping(ctx) == nil },
			Timeout:   d.Cfg.ConvergeTimeout,
		},
	}
}

func rabbitmqBroker(d Deps) preflight.Check {
	return preflight.Check{
		Name:      "rabbitmq-broker",
		DependsOn: []string{"rabbitmq-container"},
		Probe: func(ctx context.Context) model.Probe {
			snap, err := d.Broker.Snapshot(ctx, d.Cfg.Queues)
			if err != nil {
				return model.Fail(err.Error())
			}
			return model.Pass(fmt.Sprintf("%d queue(s) declared, %d pending", len(snap.Pending), snap.Total()))
		},
	}
}

func workerContainer(d Deps) preflight.Check {
	name := d.Cfg.WorkerContainer
	return preflight.Check{
		Name:      "worker-container",
		DependsOn: []string{"docker-daemon"},
		Probe:     containerRunning(d, name),
		Fix: &preflight.Action{
			Desc:  "docker start " + name,
			Start: func(ctx context.Context) error { return d.Runtime.Start(ctx, name) },
			Converged: func(ctx context.Context) bool {
				up, err := d.Runtime.Running(ctx, name)
				return err == nil && up
			},
			Timeout: d.Cfg.ConvergeTimeout,
		},
	}
}

func workerConsumers(d Deps) preflight.Check {
	return preflight.Check{
		Name:      "worker-consumers",
		DependsOn: []string{"rabbitmq-broker", "worker-container"},
		Probe: func(ctx context.Context) model.Probe {
			snap, err := d.Broker.Snapshot(ctx, d.Cfg.Queues)
			if err != nil {
				return model.Fail(err.Error())
			}
			if snap.Consumers == 0 {
				return model.Warn(fmt.Sprintf("no consumers on %s, worker may still be starting", strings.Join(d.Cfg.Queues, ", ")))
			}
			return model.Pass(fmt.Sprintf("%d consumer(s)", snap.Consumers))
		},
	}
}

func proxyStatus(d Deps) preflight.Check {
	return preflight.Check{
		Name: "proxy-status",
		Probe: func(ctx context.Context) model.Probe {
			st, err := d.Proxy.Fetch()
			if err != nil {
				return model.Fail(fmt.Sprintf("%v (is the iron-claw proxy running?)", err))
			}
			v, err := proxy.Gate(st, d.Cfg.Model, d.Cfg.MinTokenBudget)
			if err != nil {
				return model.Fail(err.Error())
			}
			if v.BudgetLow {
				return model.Warn(v.Detail)
			}
			return model.Pass(v.Detail)
		},
	}
}

func database(d Deps) preflight.Check {
	return preflight.Check{
		Name: "database",
		Probe: func(ctx context.Context) model.Probe {
			if d.Store == nil {
				return model.Fail("store client unavailable, check the AGENT_DB_* settings")
			}
			if err := d.Store.Ping(ctx); err != nil {
				return model.Fail(err.Error())
			}
			return model.Pass("database reachable")
		},
	}
}

func agentInstall(d Deps) preflight.Check {
	return preflight.Check{
		Name: "agent-install",
		Probe: func(ctx context.Context) model.Probe {
			if err := d.Agent.Installed(ctx); err != nil {
				return model.Fail(fmt.Sprintf("%v (run uv sync first)", err))
			}
			return model.Pass("agent command available")
		},
	}
}

// agentSelftest exercises the workload's own check subcommand. It is
// the final gate: pointless noise unless everything before it passed.
func agentSelftest(d Deps) preflight.Check {
	env := string(d.Cfg.Env)
	return preflight.Check{
		Name:      "agent-selftest",
		FinalGate: true,
		Probe: func(ctx context.Context) model.Probe {
			if err := d.Agent.HealthCheck(ctx, env); err != nil {
				return model.Fail(err.Error())
			}
			return model.Pass("agent check passed")
		},
	}
}

func containerRunning(d Deps, name string) func(context.Context) model.Probe {
	return func(ctx context.Context) model.Probe {
		up, err := d.Runtime.Running(ctx, name)
		if err != nil {
			return model.Fail(fmt.Sprintf("inspect %s: %v", name, err))
		}
		if !up {
			return model.Fail(fmt.Sprintf("container %s not running", name))
		}
		return model.Pass(fmt.Sprintf("container %s running", name))
	}
}
