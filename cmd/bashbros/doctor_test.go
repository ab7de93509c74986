package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
)

func TestRunDoctorHealthyEnvironment(t *testing.T) {
	withTempHome(t)
	flagProfile = "balanced"
	defer func() { flagProfile = "" }()

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})

	if err := runDoctor(cmd, nil); err != nil {
		t.Fatalf("runDoctor: %v", err)
	}
	if !bytes.Contains(out.Bytes(), []byte("[ OK ] store: reachable and queryable")) {
		t.Errorf("expected store OK line, got %q", out.String())
	}
}
