package preflight

import (
	"context"
	"testing"

	"match-scraper-ops/internal/errdefs"
	"match-scraper-ops/internal/model"
)

func passProbe(context.Context) model.Probe { return model.Pass("") }

func named(name string, deps ...string) Check {
	return Check{Name: name, DependsOn: deps, Probe: passProbe}
}

func TestOrderRespectsDependencies(t *testing.T) {
	reg, err := NewRegistry(
		named("worker", "broker"),
		named("broker", "docker"),
		named("docker"),
		named("proxy"),
	)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	pos := map[string]int{}
	for i, c := range reg.Order() {
		pos[c.Name] = i
	}
	for _, c := range reg.Order() {
		for _, dep := range c.DependsOn {
			if pos[dep] >= pos[c.Name] {
				t.Errorf("check %q at %d before dependency %q at %d", c.Name, pos[c.Name], dep, pos[dep])
			}
		}
	}
}

func TestOrderIsRegistrationStable(t *testing.T) {
	reg, err := NewRegistry(named("a"), named("b"), named("c"))
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	want := []string{"a", "b", "c"}
	for i, c := range reg.Order() {
		if c.Name != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, c.Name, want[i])
		}
	}
}

func TestRegistryRejectsCycle(t *testing.T) {
	_, err := NewRegistry(
		named("a", "b"),
		named("b", "c"),
		named("c", "a"),
	)
	if err == nil {
		t.Fatalf("NewRegistry accepted a cycle")
	}
	if !errdefs.IsConfig(err) {
		t.Errorf("cycle error kind = %q, want config", errdefs.KindOf(err))
	}
}

func TestRegistryRejectsSelfCycle(t *testing.T) {
	if _, err := NewRegistry(named("a", "a")); err == nil {
		t.Fatalf("NewRegistry accepted a self-dependency")
	}
}

func TestRegistryRejectsDuplicateName(t *testing.T) {
	if _, err := NewRegistry(named("a"), named("a")); !errdefs.IsConfig(err) {
		t.Fatalf("duplicate name error = %v, want config error", err)
	}
}

func TestRegistryRejectsUnknownDependency(t *testing.T) {
	if _, err := NewRegistry(named("a", "ghost")); !errdefs.IsConfig(err) {
		t.Fatalf("unknown dependency error = %v, want config error", err)
	}
}
