package main

import (
	"encoding/json"
	"fmt"

	"github.com/bashbros/cli/internal/store"
	"github.com/spf13/cobra"
)

// recordCmd captures what a command actually produced, after the gate
// already decided whether it was allowed. It makes no allow/deny decision
// and never exits non-zero for policy reasons.
var recordCmd = &cobra.Command{
	Use:   "record <command> <output>",
	Short: "Record a command's post-execution output as a tool-use entry",
	Args:  cobra.ExactArgs(2),
	RunE:  runRecord,
}

func runRecord(cmd *cobra.Command, args []string) error {
	command, output := args[0], args[1]

	st := openStore()
	if st == nil {
		VerbosePrintf("bashbros: store unavailable, dropping record\n")
		return nil
	}
	defer st.Close()

	inputJSON, _ := json.Marshal(map[string]string{"command": command})
	outputJSON, _ := json.Marshal(map[string]string{"output": output})

	cwd, _ := cwdOrEmpty()

	_, err := st.InsertToolUse(cmd.Context(), store.ToolUse{
		SessionID:  sessionIDFromEnv(),
		ToolName:   "bash",
		InputJSON:  string(inputJSON),
		OutputJSON: string(outputJSON),
		WorkingDir: cwd,
	})
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "bashbros: record: %v\n", err)
	}
	return nil
}
