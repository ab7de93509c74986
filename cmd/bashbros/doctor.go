package main

import (
	"fmt"
	"time"

	"github.com/bashbros/cli/internal/audit"
	"github.com/bashbros/cli/internal/config"
	"github.com/spf13/cobra"
)

// doctorCmd is a standalone diagnostic: it never participates in the gate
// decision path, so any failure it reports is informational only.
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the state directory, config, and store are usable",
	Args:  cobra.NoArgs,
	RunE:  runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	ok := true

	dir, err := config.StateDir()
	if err != nil {
		fmt.Fprintf(out, "[FAIL] state dir: %v\n", err)
		ok = false
	} else {
		fmt.Fprintf(out, "[ OK ] state dir: %s\n", dir)
	}

	cfg, warnings := config.Load(flagProfile, flagConfig)
	for _, w := range warnings {
		fmt.Fprintf(out, "[WARN] config: %s\n", w)
	}
	fmt.Fprintf(out, "[ OK ] config: profile=%s agent=%s\n", cfg.Profile, cfg.Agent)

	st := openStore()
	if st == nil {
		fmt.Fprintln(out, "[FAIL] store: could not open dashboard.db")
		ok = false
	} else {
		defer st.Close()
		if _, err := st.GetTotalCommandCount(cmd.Context()); err != nil {
			fmt.Fprintf(out, "[FAIL] store: query failed: %v\n", err)
			ok = false
		} else {
			fmt.Fprintln(out, "[ OK ] store: reachable and queryable")
		}
	}

	if cfg.Audit.Enabled() {
		logger := newAuditLogger(cfg)
		logger.Log(cmd.Context(), audit.Entry{
			Timestamp: time.Now(),
			Allowed:   true,
			Types:     nil,
			Command:   "bashbros doctor",
			Agent:     cfg.Agent,
		})
		fmt.Fprintln(out, "[ OK ] audit: wrote a diagnostic entry")
	} else {
		fmt.Fprintln(out, "[SKIP] audit: disabled in config")
	}

	if !ok {
		return fmt.Errorf("bashbros: doctor found problems")
	}
	return nil
}
