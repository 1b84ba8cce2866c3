// Package runtime adapts the local container runtime behind the narrow
// surface the readiness checks need: daemon health, container state,
// and container start.
package runtime

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"match-scraper-ops/internal/errdefs"
)

// ContainerRuntime is the capability surface consumed by checks and
// fixes. Implementations shell out; tests substitute fakes.
type ContainerRuntime interface {
	// DaemonReady reports whether the runtime daemon answers.
	DaemonReady(ctx context.Context) error
	// Running reports whether the named container is up. A container
	// that does not exist is simply not running.
	Running(ctx context.Context, name string) (bool, error)
	// Start launches the named container. Starting a container that is
	// already running is a no-op on the docker side.
	Start(ctx context.Context, name string) error
}

// DockerCLI drives containers through the docker binary.
type DockerCLI struct {
	// Bin is the docker executable; empty means "docker" from PATH.
	Bin string
}

func (d *DockerCLI) bin() string {
	if d.Bin != "" {
		return d.Bin
	}
	return "docker"
}

func (d *DockerCLI) DaemonReady(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, d.bin(), "info", "--format", "{{.ServerVersion}}")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return errdefs.External("docker daemon", fmt.Errorf("%v: %s", err, firstLine(out)))
	}
	return nil
}

func (d *DockerCLI) Running(ctx context.Context, name string) (bool, error) {
	cmd := exec.CommandContext(ctx, d.bin(), "inspect", "--format", "{{.State.Running}}", name)
	out, err := cmd.Output()
	if err != nil {
		// Inspect fails for absent containers; treat as not running.
		return false, nil
	}
	return strings.TrimSpace(string(out)) == "true", nil
}

func (d *DockerCLI) Start(ctx context.Context, name string) error {
	cmd := exec.CommandContext(ctx, d.bin(), "start", name)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return errdefs.External(fmt.Sprintf("docker start %s", name), fmt.Errorf("%v: %s", err, firstLine(out)))
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
