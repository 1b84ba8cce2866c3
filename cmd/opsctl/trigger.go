package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"match-scraper-ops/internal/checks"
	"match-scraper-ops/internal/config"
	"match-scraper-ops/internal/dispatch"
	"match-scraper-ops/internal/errdefs"
	"match-scraper-ops/internal/model"
	"match-scraper-ops/internal/monitor"
	"match-scraper-ops/internal/output"
	"match-scraper-ops/internal/proxy"
)

// triggerArtifact is the machine report for one trigger run. Effects
// is set for local non-dry runs, Job for remote dispatches.
type triggerArtifact struct {
	Report  *model.RunReport    `json:"report"`
	Effects *model.EffectReport `json:"effects,omitempty"`
	Job     *model.JobRecord    `json:"job,omitempty"`
}

// runTrigger gates on readiness and dispatches the workload. The exit
// code mirrors the workload's own exit code.
func runTrigger(ctx context.Context, args []string) int {
	env, rest, err := envArg("trigger", args)
	if err != nil {
		return fail(err)
	}

	fs := flag.NewFlagSet("trigger", flag.ExitOnError)
	dryRun := fs.Bool("dry-run", false, "forward --dry-run to the workload (local) or patch it into the job args (prod)")
	follow := fs.Bool("follow", false, "stream the remote job's logs and wait for its outcome (prod)")
	modelName := fs.String("model", "", "override the workload model (local)")
	target := fs.String("target", "", "scrape a single named target (local)")
	jsonPath := fs.String("json", "", "also write the machine-readable report to PATH")
	outDir := fs.String("out", ".opsctl", "run ledger directory")
	if err := fs.Parse(rest); err != nil {
		return 2
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fail(err)
	}

	if cfg.Env == config.EnvProd && (*modelName != "" || *target != "") {
		return fail(errdefs.Config("--model and --target apply to local runs only",
			"the deployed CronJob template defines the remote arguments"))
	}
	if cfg.Env == config.EnvLocal && *follow {
		return fail(errdefs.Config("--follow applies to prod runs only",
			"local runs stream their output in the foreground already"))
	}

	if cfg.Env == config.EnvLocal {
		opts := dispatch.Options{Env: env, DryRun: *dryRun, Model: *modelName, Target: *target}
		return triggerLocal(ctx, cfg, opts, *jsonPath, *outDir)
	}
	opts := dispatch.Options{DryRun: *dryRun, Follow: *follow}
	return triggerProd(ctx, cfg, opts, *jsonPath, *outDir)
}

func triggerLocal(ctx context.Context, cfg *config.Config, opts dispatch.Options, jsonPath, outDir string) int {
	agent := newAgent(cfg)
	deps, cleanup := localDeps(cfg, agent)
	defer cleanup()

	rep, err := gate(ctx, cfg, deps, true)
	if err != nil {
		return fail(err)
	}
	output.RenderRun(os.Stdout, rep)
	if !rep.OverallPass() {
		output.RenderFailures(os.Stdout, rep)
		record(outDir, "trigger", rep, 1, &triggerArtifact{Report: rep})
		return 1
	}

	if opts.Model == "" {
		opts.Model = resolveModel(deps.Proxy, cfg)
	}

	mon := &monitor.Monitor{
		Broker:        deps.Broker,
		Store:         deps.Store,
		Queues:        cfg.Queues,
		LogPath:       cfg.WorkerLog,
		Source:        config.SourceTag,
		DrainInterval: cfg.DrainInterval,
		DrainCeiling:  cfg.DrainCeiling,
		RecentWindow:  cfg.RecentWindow,
	}
	markers := mon.CaptureMarkers()

	fmt.Printf("\nstarting agent: %s\n", strings.Join(agent.Argv(opts), " "))
	exit, err := agent.Run(ctx, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}

	art := &triggerArtifact{Report: rep}
	if opts.DryRun {
		fmt.Printf("agent exited %d (dry run, skipping effect observation)\n", exit)
	} else {
		eff := mon.Observe(ctx, markers, exit)
		art.Effects = &eff
		fmt.Println()
		output.RenderEffect(os.Stdout, &eff)
	}

	if jsonPath != "" {
		if err := output.WriteJSON(jsonPath, art); err != nil {
			fmt.Fprintf(os.Stderr, "write json: %v\n", err)
			if exit == 0 {
				exit = 2
			}
		}
	}
	record(outDir, "trigger", rep, exit, art)
	return exit
}

// resolveModel re-reads the proxy gate so a session-pinned model is
// forwarded explicitly. Failures here are advisory: the readiness gate
// just vetted the proxy, and the workload runs its own preflight.
func resolveModel(p checks.ProxyAPI, cfg *config.Config) string {
	st, err := p.Fetch()
	if err != nil {
		return ""
	}
	v, err := proxy.Gate(st, cfg.Model, cfg.MinTokenBudget)
	if err != nil || v.Model == cfg.Model {
		return ""
	}
	fmt.Printf("proxy session pins model %s (configured %s)\n", v.Model, cfg.Model)
	return v.Model
}

func triggerProd(ctx context.Context, cfg *config.Config, opts dispatch.Options, jsonPath, outDir string) int {
	deps := prodDeps(cfg)

	rep, err := gate(ctx, cfg, deps, false)
	if err != nil {
		return fail(err)
	}
	output.RenderRun(os.Stdout, rep)
	if !rep.OverallPass() {
		output.RenderFailures(os.Stdout, rep)
		record(outDir, "trigger", rep, 1, &triggerArtifact{Report: rep})
		return 1
	}

	rem := &dispatch.Remote{
		Client:          deps.Kube,
		Namespace:       cfg.Namespace,
		CronJob:         cfg.CronJob,
		PodReadyTimeout: cfg.PodReadyTimeout,
		OutcomeTimeout:  cfg.OutcomeTimeout,
		Out:             os.Stdout,
	}
	fmt.Println()
	rec, err := rem.Run(ctx, opts)
	if err != nil {
		code := fail(err)
		record(outDir, "trigger", rep, code, &triggerArtifact{Report: rep})
		return code
	}

	// Without --follow the submission itself is the outcome; with it,
	// anything but a clean completion is a failure.
	exit := 0
	if opts.Follow && rec.Status != "Complete" {
		exit = 1
	}
	art := &triggerArtifact{Report: rep, Job: &rec}
	if jsonPath != "" {
		if err := output.WriteJSON(jsonPath, art); err != nil {
			fmt.Fprintf(os.Stderr, "write json: %v\n", err)
			if exit == 0 {
				exit = 2
			}
		}
	}
	record(outDir, "trigger", rep, exit, art)
	return exit
}
