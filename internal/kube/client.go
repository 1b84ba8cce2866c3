// Package kube builds the cluster client and carries the job-dispatch
// helpers: cloning a one-off Job from a CronJob, waiting for its pod,
// and streaming its logs.
package kube

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"match-scraper-ops/internal/errdefs"
)

// configPath chooses the kubeconfig file: explicit path first, then the
// first existing KUBECONFIG entry, then empty (default loading rules).
func configPath(explicit string) string {
	if strings.TrimSpace(explicit) != "" {
		return explicit
	}

	env := strings.TrimSpace(os.Getenv("KUBECONFIG"))
	if env == "" {
		return ""
	}

	// KUBECONFIG may hold several paths, ':' on unix and ';' on windows.
	sep := ":"
	if strings.Contains(env, ";") {
		sep = ";"
	}
	for _, p := range strings.Split(env, sep) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	// Nothing exists; return the raw value so errors name it.
	return env
}

// CurrentContext resolves the context a client would use: the override
// when given, otherwise the kubeconfig's current-context. An empty
// result is a config error, remote dispatch refuses to guess.
func CurrentContext(kubeconfig, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	path := configPath(kubeconfig)
	if path == "" {
		rules := clientcmd.NewDefaultClientConfigLoadingRules()
		raw, err := rules.Load()
		if err != nil {
			return "", errdefs.External("load kubeconfig", err)
		}
		if raw.CurrentContext == "" {
			return "", errdefs.Config("no current kube context", "set OPS_KUBE_CONTEXT or run kubectl config use-context")
		}
		return raw.CurrentContext, nil
	}

	raw, err := clientcmd.LoadFromFile(path)
	if err != nil {
		return "", errdefs.External(fmt.Sprintf("read kubeconfig %s", path), err)
	}
	if raw.CurrentContext == "" {
		return "", errdefs.Config(fmt.Sprintf("kubeconfig %s has no current context", path), "set OPS_KUBE_CONTEXT or run kubectl config use-context")
	}
	return raw.CurrentContext, nil
}

// LoadConfig returns a rest.Config for the given kubeconfig path and
// context override. Explicit file loading produces real parse errors
// instead of "no configuration provided"; with no path it falls back to
// in-cluster and then the default loading rules.
func LoadConfig(kubeconfig, contextName string) (*rest.Config, error) {
	overrides := &clientcmd.ConfigOverrides{}
	if contextName != "" {
		overrides.CurrentContext = contextName
	}

	if path := configPath(kubeconfig); path != "" {
		abs := path
		if a, err := filepath.Abs(path); err == nil {
			abs = a
		}
		raw, err := clientcmd.LoadFromFile(abs)
		if err != nil {
			return nil, errdefs.External(fmt.Sprintf("read kubeconfig %s", abs), err)
		}
		cfg, err := clientcmd.NewDefaultClientConfig(*raw, overrides).ClientConfig()
		if err != nil {
			return nil, errdefs.External(fmt.Sprintf("build client config (path=%s context=%s)", abs, contextName), err)
		}
		return cfg, nil
	}

	if cfg, err := rest.InClusterConfig(); err == nil {
		return cfg, nil
	}

	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	cfg, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, overrides).ClientConfig()
	if err != nil {
		return nil, errdefs.External("load kubeconfig via default rules", err)
	}
	return cfg, nil
}

// NewClient builds the typed clientset. Callers hold the Interface so
// tests can substitute a fake.
func NewClient(kubeconfig, contextName string) (kubernetes.Interface, error) {
	cfg, err := LoadConfig(kubeconfig, contextName)
	if err != nil {
		return nil, err
	}
	cs, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, errdefs.External("create kube client", err)
	}
	return cs, nil
}
