package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
)

func TestRunStatusRendersBadgesAfterActivity(t *testing.T) {
	withTempHome(t)
	flagStatusAgent = ""

	ctx := context.Background()
	st := openStore()
	if st == nil {
		t.Fatal("expected a non-nil store")
	}
	sid, err := st.InsertSession(ctx, "test-agent", 1, "/work", "")
	if err != nil {
		t.Fatalf("InsertSession: %v", err)
	}
	if _, err := st.InsertUserPrompt(ctx, sid, "hello there", "/work"); err != nil {
		t.Fatalf("InsertUserPrompt: %v", err)
	}
	st.Close()

	cmd := &cobra.Command{}
	cmd.SetContext(ctx)
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})

	if err := runStatus(cmd, nil); err != nil {
		t.Fatalf("runStatus: %v", err)
	}
	if !bytes.Contains(out.Bytes(), []byte("conversationalist")) {
		t.Errorf("expected the conversationalist badge in status output, got %q", out.String())
	}
}
