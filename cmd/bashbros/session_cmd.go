package main

import (
	"fmt"

	"github.com/bashbros/cli/internal/session"
	"github.com/spf13/cobra"
)

var (
	flagSessionAgent string
	flagSessionID    string
)

// retentionDays bounds how long command, prompt, and event rows are kept.
const retentionDays = 90

var sessionStartCmd = &cobra.Command{
	Use:   "session-start",
	Short: "Begin a new supervised session and print its id",
	Args:  cobra.NoArgs,
	RunE:  runSessionStart,
}

var sessionEndCmd = &cobra.Command{
	Use:   "session-end",
	Short: "Close a supervised session as completed",
	Args:  cobra.NoArgs,
	RunE:  runSessionEnd,
}

func init() {
	sessionStartCmd.Flags().StringVar(&flagSessionAgent, "agent", "", "agent label for the new session")
	sessionEndCmd.Flags().StringVar(&flagSessionID, "session", "", "session id (defaults to $BASHBROS_SESSION_ID)")
}

func runSessionStart(cmd *cobra.Command, args []string) error {
	st := openStore()
	if st == nil {
		return fmt.Errorf("bashbros: session-start requires the shared store, which could not be opened")
	}
	defer st.Close()

	agent := flagSessionAgent
	if agent == "" {
		agent = GetCurrentUser()
	}
	cwd, _ := cwdOrEmpty()

	mgr := session.NewManager(st)
	if err := mgr.Start(cmd.Context(), agent, cwd); err != nil {
		return fmt.Errorf("bashbros: session-start: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), mgr.ID())
	return nil
}

func runSessionEnd(cmd *cobra.Command, args []string) error {
	id := flagSessionID
	if id == "" {
		id = sessionIDFromEnv()
	}
	if id == "" {
		return fmt.Errorf("bashbros: session-end: no session id (pass --session or set BASHBROS_SESSION_ID)")
	}

	st := openStore()
	if st == nil {
		return fmt.Errorf("bashbros: session-end requires the shared store, which could not be opened")
	}
	defer st.Close()

	mgr := session.NewManager(st)
	if err := mgr.Resume(cmd.Context(), id); err != nil {
		return fmt.Errorf("bashbros: session-end: %w", err)
	}
	if mgr.ID() == "" {
		return fmt.Errorf("bashbros: session-end: no such session %s", id)
	}
	if err := mgr.End(cmd.Context()); err != nil {
		return fmt.Errorf("bashbros: session-end: %w", err)
	}

	// Session close is the one quiet moment in a hook-driven lifecycle, so
	// retention cleanup piggybacks on it. Best-effort only.
	if err := st.Cleanup(cmd.Context(), retentionDays); err != nil {
		VerbosePrintf("bashbros: retention cleanup: %v\n", err)
	}

	VerbosePrintf("bashbros: session %s closed\n", id)
	return nil
}
