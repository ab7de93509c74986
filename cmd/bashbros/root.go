// Command bashbros is the gate CLI: it is invoked once per hook event by a
// host agent and decides whether a proposed command is allowed, records
// session and prompt activity, and exposes a handful of operator commands
// (status, undo, doctor, config) on top of the same shared store.
package main

import (
	"fmt"
	"os"
	"os/user"

	"github.com/spf13/cobra"
)

var (
	flagOutput  string
	flagVerbose bool
	flagProfile string
	flagConfig  string
)

var rootCmd = &cobra.Command{
	Use:          "bashbros",
	Short:        "Policy-enforcing supervisor for autonomous coding agents",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "table", "output format: table, json, yaml")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose diagnostic output")
	rootCmd.PersistentFlags().StringVar(&flagProfile, "profile", "", "policy profile: strict, balanced, permissive")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a config file override")

	rootCmd.AddCommand(gateCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(sessionStartCmd)
	rootCmd.AddCommand(sessionEndCmd)
	rootCmd.AddCommand(recordPromptCmd)
	rootCmd.AddCommand(recordToolCmd)
	rootCmd.AddCommand(allowCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(undoCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)
}

// Execute runs the root command, exiting 1 on any error that isn't a
// gate-path deny (gate.go manages its own exit code directly).
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func GetOutput() string { return flagOutput }

// VerbosePrintf writes to stderr only when -v/--verbose is set.
func VerbosePrintf(format string, args ...any) {
	if flagVerbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// GetCurrentUser resolves the OS user, not spoofable via env vars.
func GetCurrentUser() string {
	u, err := user.Current()
	if err != nil {
		return "unknown"
	}
	return u.Username
}

func main() {
	Execute()
}
