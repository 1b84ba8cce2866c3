// Package manifest renders the generated credential manifest: a
// Kubernetes Secret holding the agent's two required keys, written
// before the first apply.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"match-scraper-ops/internal/config"
	"match-scraper-ops/internal/errdefs"
)

type metadata struct {
	Name      string `yaml:"name"`
	Namespace string `yaml:"namespace"`
}

type secret struct {
	APIVersion string            `yaml:"apiVersion"`
	Kind       string            `yaml:"kind"`
	Metadata   metadata          `yaml:"metadata"`
	Type       string            `yaml:"type"`
	StringData map[string]string `yaml:"stringData"`
}

// RenderSecret builds the Secret manifest. Both required variables must
// be set; the error lists every missing name so the operator fixes them
// in one pass. The stringData keys match the env names the agent pod
// reads.
func RenderSecret(cfg *config.Config) ([]byte, error) {
	if missing := cfg.MissingSecrets(); len(missing) > 0 {
		return nil, errdefs.Configf(
			fmt.Sprintf("export them or add them to envs/.env.%s", cfg.Env),
			"missing required secret variables: %s", strings.Join(missing, ", "))
	}

	s := secret{
		APIVersion: "v1",
		Kind:       "Secret",
		Metadata:   metadata{Name: cfg.SecretName, Namespace: cfg.Namespace},
		Type:       "Opaque",
		StringData: map[string]string{
			"AGENT_ANTHROPIC_API_KEY":     cfg.AnthropicAPIKey,
			"AGENT_MISSING_TABLE_API_KEY": cfg.MissingTableKey,
		},
	}
	out, err := yaml.Marshal(s)
	if err != nil {
		return nil, errdefs.External("marshal secret manifest", err)
	}
	return out, nil
}

// WriteSecret renders the manifest to its configured path. The file
// holds plaintext credentials, so it is written 0600.
func WriteSecret(cfg *config.Config) (string, error) {
	data, err := RenderSecret(cfg)
	if err != nil {
		return "", err
	}
	path := cfg.SecretManifest
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", errdefs.External(fmt.Sprintf("create %s", dir), err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", errdefs.External(fmt.Sprintf("write %s", path), err)
	}
	return path, nil
}
