package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/sadopc/breathr/internal/store"
	"github.com/sadopc/breathr/internal/tui"
	"github.com/spf13/cobra"
)

var (
	historyLimit     int
	historyCompleted bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent sessions and streaks",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of sessions to show (0 for all)")
	historyCmd.Flags().BoolVar(&historyCompleted, "completed", false, "Only show completed sessions")
}

func runHistory(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()
	return printHistory(cmd.OutOrStdout(), s, time.Now())
}

func printHistory(out io.Writer, s *store.Store, now time.Time) error {
	sessions, err := s.ListSessions(store.SessionFilter{
		CompletedOnly: historyCompleted,
		Limit:         historyLimit,
	})
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	stats, err := s.StatsAt(now)
	if err != nil {
		return fmt.Errorf("load stats: %w", err)
	}

	if len(sessions) == 0 {
		fmt.Fprintln(out, "No sessions yet. Run `breathr` or `breathr run` to start one.")
		return nil
	}

	fmt.Fprintln(out, tui.SessionTable(sessions))
	fmt.Fprintf(out, "%d sessions (%d completed), %s breathed, %d cycles. Streak: %d days (best %d)\n",
		stats.Sessions, stats.Completed,
		(time.Duration(stats.TotalSeconds) * time.Second).String(),
		stats.TotalCycles, stats.CurrentStreak, stats.LongestStreak)
	return nil
}
