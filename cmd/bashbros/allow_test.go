package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/bashbros/cli/internal/config"
	"github.com/spf13/cobra"
)

func TestAllowApprovesPatternForSession(t *testing.T) {
	withTempHome(t)
	flagAllowSession = "sess-abc"
	defer func() { flagAllowSession = "" }()

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	if err := runAllow(cmd, []string{"terraform *"}); err != nil {
		t.Fatalf("runAllow: %v", err)
	}

	dir, err := config.StateDir()
	if err != nil {
		t.Fatalf("StateDir: %v", err)
	}
	got := config.LoadSessionAllow(dir, "sess-abc")
	if len(got) != 1 || got[0] != "terraform *" {
		t.Errorf("session allowlist = %v, want [terraform *]", got)
	}
	if other := config.LoadSessionAllow(dir, "sess-other"); len(other) != 0 {
		t.Errorf("other session should see no patterns, got %v", other)
	}
}
