package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bashbros/cli/internal/audit"
	"github.com/bashbros/cli/internal/config"
	"github.com/bashbros/cli/internal/store"
)

// loadConfig loads configuration best-effort, honoring the --config flag
// at highest precedence. Warnings always go to stderr: a silently ignored
// policy file is worse than a noisy one. Misconfiguration is never fatal.
func loadConfig() *config.Config {
	cfg, warnings := config.Load(flagProfile, flagConfig)
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "bashbros: %s\n", w)
	}
	return cfg
}

// openStore opens the shared store at $HOME/.bashbros/dashboard.db. A
// failure here is never fatal to the caller: the store is fail-open for
// policy decisions. Callers receive a nil Store and decide what to fail
// open to.
func openStore() *store.Store {
	dir, err := config.StateDir()
	if err != nil {
		VerbosePrintf("bashbros: could not resolve state dir: %v\n", err)
		return nil
	}
	s, err := store.Open(filepath.Join(dir, "dashboard.db"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "bashbros: store unavailable: %v\n", err)
		return nil
	}
	return s
}

// newAuditLogger builds the audit logger from cfg, targeting
// $HOME/.bashbros/audit.log for the local destination.
func newAuditLogger(cfg *config.Config) *audit.Logger {
	dir, err := config.StateDir()
	if err != nil {
		dir = "."
	}
	return audit.New(filepath.Join(dir, "audit.log"), cfg.Audit.Destination, cfg.Audit.RemoteURL)
}

// undoDir returns the per-user undo backup directory.
func undoDir() (string, error) {
	dir, err := config.StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "undo"), nil
}

// cwdOrEmpty returns the process working directory, or "" if it cannot be
// resolved (never fatal: working directory is descriptive metadata only).
func cwdOrEmpty() (string, error) {
	return os.Getwd()
}
