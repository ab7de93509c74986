package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultProfiles(t *testing.T) {
	cases := []struct {
		profile      string
		wantProfile  string
		wantAllowNil bool
	}{
		{ProfileStrict, ProfileStrict, true},
		{ProfileBalanced, ProfileBalanced, false},
		{ProfilePermissive, ProfilePermissive, false},
		{"bogus", ProfileBalanced, false},
	}
	for _, c := range cases {
		cfg := Default(c.profile)
		if cfg.Profile != c.wantProfile {
			t.Errorf("Default(%q).Profile = %q, want %q", c.profile, cfg.Profile, c.wantProfile)
		}
		if (cfg.Commands.Allow == nil) != c.wantAllowNil {
			t.Errorf("Default(%q).Commands.Allow nil = %v, want %v", c.profile, cfg.Commands.Allow == nil, c.wantAllowNil)
		}
		if len(cfg.Commands.Block) == 0 {
			t.Errorf("Default(%q).Commands.Block is empty, every profile must ship the dangerous block list", c.profile)
		}
	}
}

func TestPermissiveAllowsWildcard(t *testing.T) {
	cfg := Default(ProfilePermissive)
	if len(cfg.Commands.Allow) != 1 || cfg.Commands.Allow[0] != "*" {
		t.Fatalf("permissive profile allow = %v, want [*]", cfg.Commands.Allow)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	oldHome := os.Getenv("HOME")
	os.Setenv("HOME", dir)
	defer os.Setenv("HOME", oldHome)

	content := []byte("profile: strict\nrateLimit:\n  maxPerMinute: 5\n")
	if err := os.WriteFile(filepath.Join(dir, ".bashbros.yml"), content, 0o600); err != nil {
		t.Fatal(err)
	}

	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd)
	os.Chdir(t.TempDir())

	cfg, warnings := Load("", "")
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if cfg.Profile != "strict" {
		t.Errorf("Profile = %q, want strict", cfg.Profile)
	}
	if cfg.RateLimit.MaxPerMinute != 5 {
		t.Errorf("RateLimit.MaxPerMinute = %d, want 5", cfg.RateLimit.MaxPerMinute)
	}
	if cfg.RateLimit.MaxPerHour == 0 {
		t.Errorf("RateLimit.MaxPerHour should retain its default, got 0")
	}
}

func TestLoadMalformedYAMLWarnsButContinues(t *testing.T) {
	dir := t.TempDir()
	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd)
	os.Chdir(dir)

	if err := os.WriteFile(filepath.Join(dir, ".bashbros.yml"), []byte(": not yaml: ["), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, warnings := Load("", "")
	if len(warnings) == 0 {
		t.Fatal("expected a warning for malformed YAML")
	}
	if cfg == nil {
		t.Fatal("Load must still return a usable config on parse failure")
	}
}

func TestExplicitConfigPathWinsOverSearchedFiles(t *testing.T) {
	home := t.TempDir()
	oldHome := os.Getenv("HOME")
	os.Setenv("HOME", home)
	defer os.Setenv("HOME", oldHome)

	if err := os.WriteFile(filepath.Join(home, ".bashbros.yml"), []byte("rateLimit:\n  maxPerMinute: 5\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	explicit := filepath.Join(t.TempDir(), "policy.yml")
	if err := os.WriteFile(explicit, []byte("rateLimit:\n  maxPerMinute: 7\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd)
	os.Chdir(t.TempDir())

	cfg, warnings := Load("", explicit)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if cfg.RateLimit.MaxPerMinute != 7 {
		t.Errorf("MaxPerMinute = %d, want 7 (explicit --config must win)", cfg.RateLimit.MaxPerMinute)
	}
}

func TestExplicitConfigPathUnreadableWarns(t *testing.T) {
	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd)
	os.Chdir(t.TempDir())

	_, warnings := Load("", filepath.Join(t.TempDir(), "does-not-exist.yml"))
	if len(warnings) == 0 {
		t.Fatal("expected a warning for an unreadable --config file")
	}
}

func TestEnableFalseOverridesProfileDefault(t *testing.T) {
	dir := t.TempDir()
	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd)
	os.Chdir(dir)

	content := []byte("rateLimit:\n  enable: false\nsecrets:\n  enable: false\n")
	if err := os.WriteFile(filepath.Join(dir, ".bashbros.yml"), content, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, _ := Load("", "")
	if cfg.RateLimit.Enabled() {
		t.Error("rateLimit.enable: false should disable rate limiting")
	}
	if cfg.Secrets.Enabled() {
		t.Error("secrets.enable: false should disable the secrets guard")
	}
	if !cfg.LoopDetection.Enabled() {
		t.Error("untouched subsystems should keep their profile default")
	}
}

func TestEnvOverride(t *testing.T) {
	os.Setenv("BASHBROS_MAX_PER_MINUTE", "42")
	defer os.Unsetenv("BASHBROS_MAX_PER_MINUTE")

	cfg := Default(ProfileBalanced)
	applyEnv(cfg)
	if cfg.RateLimit.MaxPerMinute != 42 {
		t.Errorf("MaxPerMinute = %d, want 42", cfg.RateLimit.MaxPerMinute)
	}
}
