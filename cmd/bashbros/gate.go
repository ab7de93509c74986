package main

import (
	"fmt"
	"os"
	"time"

	"github.com/bashbros/cli/internal/audit"
	"github.com/bashbros/cli/internal/config"
	"github.com/bashbros/cli/internal/engine"
	"github.com/bashbros/cli/internal/policy"
	"github.com/bashbros/cli/internal/session"
	"github.com/spf13/cobra"
)

var gateCmd = &cobra.Command{
	Use:   "gate <command>",
	Short: "Decide whether a proposed command is allowed",
	Args:  cobra.ExactArgs(1),
	RunE:  runGate,
}

// sessionIDFromEnv is the process-local session id a host sets once per
// supervised run, so gate invocations from the same session share loop
// and rate context. Out-of-session hooks simply leave it unset.
func sessionIDFromEnv() string {
	return os.Getenv("BASHBROS_SESSION_ID")
}

func runGate(cmd *cobra.Command, args []string) error {
	command := args[0]
	start := time.Now()

	cfg := loadConfig()

	// Session-approved patterns widen a restrictive allow list; an empty
	// allow list already allows everything, so merging there would narrow
	// it instead.
	if len(cfg.Commands.Allow) > 0 {
		if dir, err := config.StateDir(); err == nil {
			extra := config.LoadSessionAllow(dir, sessionIDFromEnv())
			cfg.Commands.Allow = append(cfg.Commands.Allow, extra...)
		}
	}

	st := openStore()
	if st != nil {
		defer st.Close()
	}

	sessionID := sessionIDFromEnv()
	sessMgr := session.NewManager(st)
	if sessionID != "" {
		if err := sessMgr.Resume(cmd.Context(), sessionID); err != nil {
			VerbosePrintf("bashbros: session resume: %v\n", err)
		}
	}
	sessionTurns := sessMgr.CommandCount()

	var eng *engine.Engine
	if st != nil {
		eng = engine.New(cfg, st, sessionID, sessionTurns)
	} else {
		eng = engine.New(cfg, nil, sessionID, sessionTurns)
	}

	decision := eng.Validate(cmd.Context(), command)
	duration := time.Since(start)

	for _, w := range decision.Warnings {
		fmt.Fprintf(os.Stderr, "bashbros: %s\n", w)
	}

	allowed := len(decision.Violations) == 0

	if err := sessMgr.Record(cmd.Context(), command, allowed, decision.Risk, decision.Violations, duration.Milliseconds()); err != nil {
		VerbosePrintf("bashbros: session record: %v\n", err)
	}

	if cfg.Audit.Enabled() {
		logger := newAuditLogger(cfg)
		var types []string
		var auditViolations []audit.Violation
		for _, v := range decision.Violations {
			types = append(types, v.Type)
			auditViolations = append(auditViolations, audit.Violation{Type: v.Type, Rule: v.Rule, Message: v.Message})
		}
		logger.Log(cmd.Context(), audit.Entry{
			Timestamp:  start,
			Allowed:    allowed,
			Types:      types,
			DurationMs: duration.Milliseconds(),
			Command:    command,
			Violations: auditViolations,
			Agent:      cfg.Agent,
		})
	}

	if !allowed {
		reason := decision.Violations[0].Message
		if st != nil {
			// Best-effort observability rows; the deny stands regardless.
			st.InsertEvent(cmd.Context(), sessionID, "command_blocked", reason)
			if dest := policy.ExtractDestination(command); dest != "" {
				st.InsertEgressBlock(cmd.Context(), sessionID, dest, reason)
			}
		}
		fmt.Fprintf(os.Stderr, "bashbros: denied: %s\n", reason)
		os.Exit(1)
	}

	return nil
}
