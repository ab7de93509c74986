package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var recordPromptCmd = &cobra.Command{
	Use:   "record-prompt <prompt>",
	Short: "Capture a user prompt for the achievement and activity read-models",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecordPrompt,
}

func runRecordPrompt(cmd *cobra.Command, args []string) error {
	st := openStore()
	if st == nil {
		VerbosePrintf("bashbros: store unavailable, dropping prompt\n")
		return nil
	}
	defer st.Close()

	cwd, _ := cwdOrEmpty()
	if _, err := st.InsertUserPrompt(cmd.Context(), sessionIDFromEnv(), args[0], cwd); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "bashbros: record-prompt: %v\n", err)
	}
	return nil
}
