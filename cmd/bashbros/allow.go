package main

import (
	"fmt"

	"github.com/bashbros/cli/internal/config"
	"github.com/spf13/cobra"
)

var flagAllowSession string

var allowCmd = &cobra.Command{
	Use:   "allow <pattern>",
	Short: "Approve a command pattern for the current session",
	Long: `Approve a command glob pattern for the current session.

Approved patterns are stored in session-allow.json in the state directory
and widen the profile allow list for subsequent gate calls in the same
session. They never override the block list.`,
	Args: cobra.ExactArgs(1),
	RunE: runAllow,
}

func init() {
	allowCmd.Flags().StringVar(&flagAllowSession, "session", "", "session id (defaults to $BASHBROS_SESSION_ID)")
}

func runAllow(cmd *cobra.Command, args []string) error {
	pattern := args[0]

	id := flagAllowSession
	if id == "" {
		id = sessionIDFromEnv()
	}

	dir, err := config.StateDir()
	if err != nil {
		return fmt.Errorf("bashbros: allow: %w", err)
	}
	if err := config.AppendSessionAllow(dir, id, pattern); err != nil {
		return fmt.Errorf("bashbros: allow: %w", err)
	}

	if id == "" {
		VerbosePrintf("bashbros: approved %q outside any session\n", pattern)
	} else {
		VerbosePrintf("bashbros: approved %q for session %s\n", pattern, id)
	}
	return nil
}
