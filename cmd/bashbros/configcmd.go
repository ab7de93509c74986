package main

import (
	"fmt"
	"io"

	"github.com/bashbros/cli/internal/output"
	"github.com/spf13/cobra"
)

// configCmd prints the fully resolved configuration tree (defaults plus
// any file/env overrides), so an operator can see exactly what a gate
// invocation would decide against.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the fully resolved configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	return output.Write(cmd.OutOrStdout(), output.ParseFormat(GetOutput()), cfg, func(w io.Writer) error {
		tw := output.NewTabWriter(w)
		fmt.Fprintf(tw, "profile\t%s\n", cfg.Profile)
		fmt.Fprintf(tw, "agent\t%s\n", cfg.Agent)
		fmt.Fprintf(tw, "commands.allow\t%v\n", cfg.Commands.Allow)
		fmt.Fprintf(tw, "commands.block\t%d patterns\n", len(cfg.Commands.Block))
		fmt.Fprintf(tw, "paths.allow\t%v\n", cfg.Paths.Allow)
		fmt.Fprintf(tw, "paths.block\t%v\n", cfg.Paths.Block)
		fmt.Fprintf(tw, "secrets.enable\t%v\n", cfg.Secrets.Enabled())
		fmt.Fprintf(tw, "secrets.mode\t%s\n", cfg.Secrets.Mode)
		fmt.Fprintf(tw, "audit.destination\t%s\n", cfg.Audit.Destination)
		fmt.Fprintf(tw, "rateLimit.maxPerMinute\t%d\n", cfg.RateLimit.MaxPerMinute)
		fmt.Fprintf(tw, "rateLimit.maxPerHour\t%d\n", cfg.RateLimit.MaxPerHour)
		fmt.Fprintf(tw, "riskScoring.warnThreshold\t%d\n", cfg.RiskScoring.WarnThreshold)
		fmt.Fprintf(tw, "riskScoring.blockThreshold\t%d\n", cfg.RiskScoring.BlockThreshold)
		fmt.Fprintf(tw, "loopDetection.maxRepeats\t%d\n", cfg.LoopDetection.MaxRepeats)
		fmt.Fprintf(tw, "loopDetection.action\t%s\n", cfg.LoopDetection.Action)
		fmt.Fprintf(tw, "anomalyDetection.learningCommands\t%d\n", cfg.AnomalyDetection.LearningCommands)
		fmt.Fprintf(tw, "anomalyDetection.action\t%s\n", cfg.AnomalyDetection.Action)
		return tw.Flush()
	})
}
