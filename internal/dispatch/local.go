// Package dispatch launches the workload: as a blocking local process,
// or as a uniquely-named one-off cluster job cloned from the deployed
// CronJob.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"match-scraper-ops/internal/errdefs"
)

// Options are the trigger flags forwarded to the workload verbatim.
// Empty fields are omitted from the argument vector.
type Options struct {
	Env    string
	DryRun bool
	Model  string
	Target string
	Follow bool
}

// Local runs the agent as a blocking foreground process in the
// repository working directory.
type Local struct {
	// Command is the workload invocation, e.g. "uv run match-scraper-agent".
	Command string
	// Dir is the working directory; empty means the current one.
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
}

// Argv builds the full argument vector for a run.
func (l *Local) Argv(opts Options) []string {
	argv := append(strings.Fields(l.Command), "run", "--env", opts.Env)
	if opts.DryRun {
		argv = append(argv, "--dry-run")
	}
	if opts.Model != "" {
		argv = append(argv, "--model", opts.Model)
	}
	if opts.Target != "" {
		argv = append(argv, "--target", opts.Target)
	}
	return argv
}

// Run executes the workload and returns its exit code. Only a launch
// failure is an error; a non-zero workload exit is a normal outcome the
// caller mirrors.
func (l *Local) Run(ctx context.Context, opts Options) (int, error) {
	argv := l.Argv(opts)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = l.Dir
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return 1, errdefs.External(fmt.Sprintf("launch %s", argv[0]), err)
	}
	return 0, nil
}

// Installed verifies the workload command can be invoked at all.
func (l *Local) Installed(ctx context.Context) error {
	argv := append(strings.Fields(l.Command), "--help")
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = l.Dir
	if out, err := cmd.CombinedOutput(); err != nil {
		return errdefs.External(fmt.Sprintf("run %s", l.Command), fmt.Errorf("%v: %s", err, firstLine(out)))
	}
	return nil
}

// HealthCheck runs the workload's own check subcommand and returns its
// first line of output on failure.
func (l *Local) HealthCheck(ctx context.Context, env string) error {
	argv := append(strings.Fields(l.Command), "check", "--env", env)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = l.Dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return errdefs.External("agent self-test", fmt.Errorf("%v: %s", err, firstLine(out)))
	}
	return nil
}

func firstLine(out []byte) string {
	s := strings.TrimSpace(string(out))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
