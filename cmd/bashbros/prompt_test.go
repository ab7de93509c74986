package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
)

func TestRunRecordPromptStoresPrompt(t *testing.T) {
	withTempHome(t)

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	if err := runRecordPrompt(cmd, []string{"how do I revert this commit"}); err != nil {
		t.Fatalf("runRecordPrompt: %v", err)
	}

	st := openStore()
	if st == nil {
		t.Fatal("expected a non-nil store")
	}
	defer st.Close()

	stats, err := st.GetUserPromptStats(context.Background())
	if err != nil {
		t.Fatalf("GetUserPromptStats: %v", err)
	}
	if stats.Total != 1 {
		t.Errorf("Total = %d, want 1", stats.Total)
	}
	if stats.TotalWordCount == 0 {
		t.Errorf("expected a non-zero word count, got %+v", stats)
	}
}
