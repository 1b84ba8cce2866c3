// Command opsctl drives the match-scraper pipeline: readiness checks
// with optional self-healing, local and remote workload dispatch, and
// post-run effect sampling.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"match-scraper-ops/internal/broker"
	"match-scraper-ops/internal/checks"
	"match-scraper-ops/internal/config"
	"match-scraper-ops/internal/dispatch"
	"match-scraper-ops/internal/errdefs"
	"match-scraper-ops/internal/history"
	"match-scraper-ops/internal/kube"
	"match-scraper-ops/internal/model"
	"match-scraper-ops/internal/preflight"
	"match-scraper-ops/internal/proxy"
	"match-scraper-ops/internal/runtime"
	"match-scraper-ops/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:]))
}

func run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}
	switch args[0] {
	case "preflight":
		return runPreflight(ctx, args[1:])
	case "trigger":
		return runTrigger(ctx, args[1:])
	case "secrets":
		return runSecrets(args[1:])
	case "help", "-h", "--help":
		printUsage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `opsctl checks, heals and triggers the match-scraper pipeline.

usage:
  opsctl preflight <env> [--fix] [--json PATH]
      run the readiness checks; exit 0 only when every check passes
  opsctl trigger <env> [--dry-run] [--model NAME] [--target NAME] [--follow] [--json PATH]
      gate on readiness, then run the agent; exit mirrors the workload
  opsctl secrets <env> [--out PATH]
      render the kubernetes secret manifest from the environment

env is local or prod.
`)
}

// envArg peels the positional environment name off a subcommand's
// arguments. It must come before any flags.
func envArg(cmd string, args []string) (string, []string, error) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return "", nil, errdefs.Config(
			fmt.Sprintf("usage: opsctl %s <env> [flags]", cmd),
			"pass local or prod as the first argument")
	}
	return args[0], args[1:], nil
}

func fail(err error) int {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	if advice := errdefs.AdviceOf(err); advice != "" {
		fmt.Fprintf(os.Stderr, "  %s\n", advice)
	}
	return 2
}

func newAgent(cfg *config.Config) *dispatch.Local {
	return &dispatch.Local{
		Command: cfg.AgentCommand,
		Dir:     cfg.RepoDir,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// localDeps wires the workstation collaborators. The returned cleanup
// closes the store pool when one was opened; a store that cannot even
// be constructed surfaces through the database check instead.
func localDeps(cfg *config.Config, agent *dispatch.Local) (checks.Deps, func()) {
	d := checks.Deps{
		Cfg:     cfg,
		Runtime: &runtime.DockerCLI{},
		Broker:  &broker.AMQP{URL: cfg.BrokerURL},
		Proxy:   proxy.NewClient(cfg.ProxyURL),
		Agent:   agent,
	}
	cleanup := func() {}
	if st, err := store.Open(cfg.DatabaseDSN()); err == nil {
		d.Store = st
		cleanup = func() { st.Close() }
	}
	return d, cleanup
}

func prodDeps(cfg *config.Config) checks.Deps {
	d := checks.Deps{Cfg: cfg}
	cs, err := kube.NewClient("", cfg.KubeContext)
	if err != nil {
		d.KubeErr = err
		return d
	}
	d.Kube = cs
	return d
}

// gate runs the environment's readiness registry.
func gate(ctx context.Context, cfg *config.Config, deps checks.Deps, fix bool) (*model.RunReport, error) {
	var reg *preflight.Registry
	var err error
	if cfg.Env == config.EnvLocal {
		reg, err = checks.Local(deps)
	} else {
		reg, err = checks.Prod(deps)
	}
	if err != nil {
		return nil, err
	}
	r := &preflight.Runner{
		Engine: preflight.NewEngine(cfg.ConvergeInterval, cfg.ConvergeTimeout),
		Fix:    fix,
	}
	return r.Run(ctx, reg, string(cfg.Env)), nil
}

// record appends to the run ledger; ledger problems never change a
// command's exit code.
func record(dir, command string, rep *model.RunReport, exit int, artifact any) {
	if _, err := history.Record(dir, command, rep, exit, artifact); err != nil {
		fmt.Fprintln(os.Stderr, "history: (skipped)", err)
	}
}
