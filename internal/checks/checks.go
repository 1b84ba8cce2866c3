// Package checks defines the readiness registries: what must be true
// before the agent runs locally, and what must exist in the cluster
// before a remote trigger. Probes close over narrow collaborator
// interfaces so tests substitute fakes.
package checks

import (
	"context"

	"k8s.io/client-go/kubernetes"

	"match-scraper-ops/internal/broker"
	"match-scraper-ops/internal/config"
	"match-scraper-ops/internal/proxy"
	"match-scraper-ops/internal/runtime"
	"match-scraper-ops/internal/store"
)

// AgentRunner is the slice of the local dispatcher the checks need.
type AgentRunner interface {
	Installed(ctx context.Context) error
	HealthCheck(ctx context.Context, env string) error
}

// ProxyAPI fetches iron-claw proxy status.
type ProxyAPI interface {
	Fetch() (*proxy.Status, error)
}

// Deps carries the collaborator handles the registries close over.
// Unused handles may be nil for the other environment's registry.
type Deps struct {
	Cfg     *config.Config
	Runtime runtime.ContainerRuntime
	Broker  broker.Admin
	Store   store.Querier
	Proxy   ProxyAPI
	Agent   AgentRunner

	// Kube is nil when the cluster client could not be built; KubeErr
	// then explains why in the cluster-api check.
	Kube    kubernetes.Interface
	KubeErr error
}
