package main

import (
	"fmt"
	"io"

	"github.com/bashbros/cli/internal/output"
	"github.com/bashbros/cli/internal/store"
	"github.com/spf13/cobra"
)

var flagStatusAgent string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent sessions, achievement badges, and XP",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&flagStatusAgent, "agent", "", "filter sessions to one agent")
}

// statusView is the shape rendered by the status command, used for both
// the table and the JSON/YAML encodings.
type statusView struct {
	Sessions []store.Session        `json:"sessions" yaml:"sessions"`
	Stats    store.AchievementStats `json:"stats" yaml:"stats"`
	Badges   []store.Badge          `json:"badges" yaml:"badges"`
	XP       int                    `json:"xp" yaml:"xp"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	st := openStore()
	if st == nil {
		return fmt.Errorf("bashbros: status requires the shared store, which could not be opened")
	}
	defer st.Close()

	sessions, err := st.GetSessions(cmd.Context(), flagStatusAgent, 10)
	if err != nil {
		return fmt.Errorf("bashbros: status: %w", err)
	}
	stats, err := st.GetAchievementStats(cmd.Context())
	if err != nil {
		return fmt.Errorf("bashbros: status: %w", err)
	}
	badges := store.ComputeAchievements(stats)
	xp := store.ComputeXP(stats, badges)

	view := statusView{Sessions: sessions, Stats: stats, Badges: badges, XP: xp}

	return output.Write(cmd.OutOrStdout(), output.ParseFormat(GetOutput()), view, func(w io.Writer) error {
		return renderStatusTable(w, view)
	})
}

func renderStatusTable(w io.Writer, view statusView) error {
	tw := output.NewTabWriter(w)
	fmt.Fprintf(tw, "XP\t%d\n", view.XP)
	fmt.Fprintf(tw, "Sessions\t%d\tCommands\t%d\tBlocked\t%d\n",
		view.Stats.TotalSessions, view.Stats.TotalCommands, view.Stats.TotalBlocked)
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(view.Badges) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Badges:")
		btw := output.NewTabWriter(w)
		for _, b := range view.Badges {
			fmt.Fprintf(btw, "  %s\t%s\n", b.Name, b.Label)
		}
		if err := btw.Flush(); err != nil {
			return err
		}
	}

	if len(view.Sessions) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Recent sessions:")
		stw := output.NewTabWriter(w)
		fmt.Fprintf(stw, "  ID\tAGENT\tSTATUS\tCOMMANDS\tBLOCKED\tAVG RISK\n")
		for _, s := range view.Sessions {
			fmt.Fprintf(stw, "  %s\t%s\t%s\t%d\t%d\t%.1f\n",
				s.ID, s.Agent, s.Status, s.CommandCount, s.BlockedCount, s.AvgRiskScore())
		}
		if err := stw.Flush(); err != nil {
			return err
		}
	}
	return nil
}
