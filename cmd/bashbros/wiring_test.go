package main

import (
	"os"
	"path/filepath"
	"testing"
)

func readAuditLog(home string) ([]byte, error) {
	return os.ReadFile(filepath.Join(home, ".bashbros", "audit.log"))
}

func TestLoadConfigDefaultsToBalanced(t *testing.T) {
	withTempHome(t)
	flagProfile = ""
	defer func() { flagProfile = "" }()

	cfg := loadConfig()
	if cfg.Profile != "balanced" {
		t.Errorf("Profile = %q, want balanced", cfg.Profile)
	}
}

func TestOpenStoreCreatesStateDir(t *testing.T) {
	home := withTempHome(t)

	st := openStore()
	if st == nil {
		t.Fatal("expected a non-nil store")
	}
	defer st.Close()

	if _, err := os.Stat(filepath.Join(home, ".bashbros", "dashboard.db")); err != nil {
		t.Errorf("expected dashboard.db to exist: %v", err)
	}
}

func TestUndoDirUnderStateDir(t *testing.T) {
	home := withTempHome(t)

	dir, err := undoDir()
	if err != nil {
		t.Fatalf("undoDir: %v", err)
	}
	if dir != filepath.Join(home, ".bashbros", "undo") {
		t.Errorf("undoDir = %q", dir)
	}
}
