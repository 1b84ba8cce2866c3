package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"match-scraper-ops/internal/errdefs"
)

func TestParseEnv(t *testing.T) {
	if _, err := ParseEnv("staging"); !errdefs.IsConfig(err) {
		t.Fatalf("ParseEnv(staging) error = %v, want config error", err)
	}
	e, err := ParseEnv("prod")
	if err != nil {
		t.Fatalf("ParseEnv(prod) error = %v", err)
	}
	if e != EnvProd {
		t.Errorf("env = %q, want %q", e, EnvProd)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPS_ENV_DIR", t.TempDir())
	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Env != EnvLocal {
		t.Errorf("Env = %q, want local", cfg.Env)
	}
	if cfg.Model != "claude-haiku-4-5-20251001" {
		t.Errorf("Model = %q, want default", cfg.Model)
	}
	if cfg.Namespace != "match-scraper" {
		t.Errorf("Namespace = %q, want match-scraper", cfg.Namespace)
	}
	if len(cfg.Queues) != 1 || cfg.Queues[0] != "matches" {
		t.Errorf("Queues = %v, want [matches]", cfg.Queues)
	}
	if cfg.DrainInterval != 2*time.Second || cfg.DrainCeiling != 30*time.Second {
		t.Errorf("drain = %v/%v, want 2s/30s", cfg.DrainInterval, cfg.DrainCeiling)
	}
	if cfg.PodReadyTimeout != time.Minute {
		t.Errorf("PodReadyTimeout = %v, want 1m", cfg.PodReadyTimeout)
	}
	want := "host=127.0.0.1 port=54332 user=postgres password=postgres dbname=postgres"
	if got := cfg.DatabaseDSN(); got != want {
		t.Errorf("DatabaseDSN = %q, want %q", got, want)
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env.local")
	body := "AGENT_MODEL_NAME=claude-sonnet-4-5\nOPS_QUEUES=matches,matches.retry\n"
	if err := os.WriteFile(file, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("OPS_ENV_DIR", dir)

	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Model != "claude-sonnet-4-5" {
		t.Errorf("Model = %q, want file value", cfg.Model)
	}
	if len(cfg.Queues) != 2 || cfg.Queues[1] != "matches.retry" {
		t.Errorf("Queues = %v, want two entries from file", cfg.Queues)
	}
}

func TestProcessEnvWinsOverFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env.prod")
	if err := os.WriteFile(file, []byte("AGENT_MODEL_NAME=from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("OPS_ENV_DIR", dir)
	t.Setenv("AGENT_MODEL_NAME", "from-process")

	cfg, err := Load("prod")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Model != "from-process" {
		t.Errorf("Model = %q, want process value to win", cfg.Model)
	}
}

func TestLoadRejectsUnknownEnv(t *testing.T) {
	if _, err := Load("qa"); !errdefs.IsConfig(err) {
		t.Fatalf("Load(qa) error = %v, want config error", err)
	}
}

func TestMissingSecrets(t *testing.T) {
	cfg := &Config{}
	got := cfg.MissingSecrets()
	if len(got) != 2 {
		t.Fatalf("MissingSecrets = %v, want both keys", got)
	}
	cfg.AnthropicAPIKey = "sk-ant-x"
	cfg.MissingTableKey = "mt-x"
	if got := cfg.MissingSecrets(); len(got) != 0 {
		t.Errorf("MissingSecrets = %v, want none", got)
	}
}
