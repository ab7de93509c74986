package main

import (
	"fmt"
	"strconv"

	"github.com/bashbros/cli/internal/store"
	"github.com/spf13/cobra"
)

var (
	flagToolExitCode string
	flagToolSuccess  bool
	flagToolRepo     string
)

// recordToolCmd captures a generic tool invocation (not necessarily a
// shell command) for the activity timeline.
var recordToolCmd = &cobra.Command{
	Use:   "record-tool <name> <input-json> <output-json>",
	Short: "Record a generic tool invocation",
	Args:  cobra.ExactArgs(3),
	RunE:  runRecordTool,
}

func init() {
	recordToolCmd.Flags().StringVar(&flagToolExitCode, "exit-code", "", "process exit code, if any")
	recordToolCmd.Flags().BoolVar(&flagToolSuccess, "success", false, "whether the tool reported success")
	recordToolCmd.Flags().StringVar(&flagToolRepo, "repo", "", "repository name, if known")
}

func runRecordTool(cmd *cobra.Command, args []string) error {
	st := openStore()
	if st == nil {
		VerbosePrintf("bashbros: store unavailable, dropping tool-use record\n")
		return nil
	}
	defer st.Close()

	rec := store.ToolUse{
		SessionID:  sessionIDFromEnv(),
		ToolName:   args[0],
		InputJSON:  args[1],
		OutputJSON: args[2],
		RepoName:   flagToolRepo,
	}
	if cwd, err := cwdOrEmpty(); err == nil {
		rec.WorkingDir = cwd
	}
	if flagToolExitCode != "" {
		if n, err := strconv.Atoi(flagToolExitCode); err == nil {
			rec.ExitCode = &n
		}
	}
	if cmd.Flags().Changed("success") {
		rec.Success = &flagToolSuccess
	}

	if _, err := st.InsertToolUse(cmd.Context(), rec); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "bashbros: record-tool: %v\n", err)
	}
	return nil
}
