package main

import (
	"flag"
	"fmt"

	"match-scraper-ops/internal/config"
	"match-scraper-ops/internal/manifest"
)

// runSecrets renders the Kubernetes Secret manifest from the local
// environment. It never prints secret values to the terminal.
func runSecrets(args []string) int {
	env, rest, err := envArg("secrets", args)
	if err != nil {
		return fail(err)
	}

	fs := flag.NewFlagSet("secrets", flag.ExitOnError)
	outPath := fs.String("out", "", "write the manifest to PATH instead of the configured location")
	if err := fs.Parse(rest); err != nil {
		return 2
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fail(err)
	}
	if *outPath != "" {
		cfg.SecretManifest = *outPath
	}

	path, err := manifest.WriteSecret(cfg)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("wrote %s\n", path)
	fmt.Printf("apply with: kubectl apply -n %s -f %s\n", cfg.Namespace, path)
	return 0
}
