package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"match-scraper-ops/internal/checks"
	"match-scraper-ops/internal/config"
	"match-scraper-ops/internal/history"
	"match-scraper-ops/internal/output"
)

// runPreflight executes the readiness registry for one environment.
// Exit 0 only when every check passed; WARN and SKIP do not fail the
// run.
func runPreflight(ctx context.Context, args []string) int {
	env, rest, err := envArg("preflight", args)
	if err != nil {
		return fail(err)
	}

	fs := flag.NewFlagSet("preflight", flag.ExitOnError)
	fix := fs.Bool("fix", false, "attempt remediation for failing checks")
	jsonPath := fs.String("json", "", "also write the machine-readable report to PATH")
	outDir := fs.String("out", ".opsctl", "run ledger directory")
	if err := fs.Parse(rest); err != nil {
		return 2
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fail(err)
	}

	var deps checks.Deps
	cleanup := func() {}
	if cfg.Env == config.EnvLocal {
		deps, cleanup = localDeps(cfg, newAgent(cfg))
	} else {
		deps = prodDeps(cfg)
	}
	defer cleanup()

	rep, err := gate(ctx, cfg, deps, *fix)
	if err != nil {
		return fail(err)
	}

	output.RenderRun(os.Stdout, rep)
	exit := 0
	if !rep.OverallPass() {
		output.RenderFailures(os.Stdout, rep)
		exit = 1
	}

	if *jsonPath != "" {
		if err := output.WriteJSON(*jsonPath, rep); err != nil {
			fmt.Fprintf(os.Stderr, "write json: %v\n", err)
			return 2
		}
	}

	if tr, err := history.Record(*outDir, "preflight", rep, exit, rep); err != nil {
		fmt.Fprintln(os.Stderr, "history: (skipped)", err)
	} else if tr.Label == "RECOVERED" || tr.Label == "REGRESSED" {
		fmt.Printf("trend: %s (%d failing, previously %d)\n", tr.Label, tr.CurrentFail, tr.PreviousFail)
	}
	return exit
}
