package preflight

import (
	"match-scraper-ops/internal/errdefs"
)

// Registry holds an ordered set of checks with resolved dependencies.
// Construction fails on duplicate names, unknown dependencies, or
// cycles, so a registry that exists is always runnable.
type Registry struct {
	order []Check
}

// NewRegistry validates the checks and resolves their execution order.
// The order is stable: it follows registration order except where a
// dependency forces a check later.
func NewRegistry(checks ...Check) (*Registry, error) {
	byName := make(map[string]int, len(checks))
	for i, c := range checks {
		if c.Name == "" {
			return nil, errdefs.Config("unnamed check", "give every check a name")
		}
		if _, dup := byName[c.Name]; dup {
			return nil, errdefs.Configf("rename one of them", "duplicate check name %q", c.Name)
		}
		byName[c.Name] = i
	}
	for _, c := range checks {
		for _, dep := range c.DependsOn {
			if _, ok := byName[dep]; !ok {
				return nil, errdefs.Configf("register the dependency or drop it", "check %q depends on unknown check %q", c.Name, dep)
			}
		}
	}

	const (
		unvisited = iota
		visiting
		visited
	)
	state := make([]int, len(checks))
	order := make([]Check, 0, len(checks))

	var visit func(i int) error
	visit = func(i int) error {
		switch state[i] {
		case visited:
			return nil
		case visiting:
			return errdefs.Configf("break the cycle", "dependency cycle through check %q", checks[i].Name)
		}
		state[i] = visiting
		for _, dep := range checks[i].DependsOn {
			if err := visit(byName[dep]); err != nil {
				return err
			}
		}
		state[i] = visited
		order = append(order, checks[i])
		return nil
	}
	for i := range checks {
		if err := visit(i); err != nil {
			return nil, err
		}
	}

	return &Registry{order: order}, nil
}

// Order returns the checks in execution order: every check appears
// after all of its dependencies.
func (r *Registry) Order() []Check {
	return r.order
}

// Len reports the number of registered checks.
func (r *Registry) Len() int {
	return len(r.order)
}
