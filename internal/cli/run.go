package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sadopc/breathr/internal/pacer"
	"github.com/sadopc/breathr/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	runPhaseSeconds int
	runTotalMinutes int
	runNoSave       bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Pace a session without the interactive UI",
	Long: `Runs one session and prints each phase as it begins. Ctrl+C stops the
session early. The result is saved to the history unless --no-save is set.`,
	RunE: runHeadless,
}

func init() {
	runCmd.Flags().IntVarP(&runPhaseSeconds, "phase", "p", 0, "Phase length in seconds (default from config)")
	runCmd.Flags().IntVarP(&runTotalMinutes, "minutes", "m", 0, "Session length in minutes (default from config)")
	runCmd.Flags().BoolVar(&runNoSave, "no-save", false, "Do not record the session")
}

func runHeadless(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	pcfg, err := s.PacerConfig(cfg.Pacer.SessionConfig())
	if err != nil {
		logger.Warn("load preferences", zap.Error(err))
	}
	if runPhaseSeconds != 0 {
		pcfg.PhaseDurationSeconds = runPhaseSeconds
	}
	if runTotalMinutes != 0 {
		pcfg.TotalDurationMinutes = runTotalMinutes
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	session := pacer.New(pacer.NewTickerScheduler(), pacer.WithLogger(logger))
	sum, err := pace(ctx, out, session, pcfg)
	if err != nil {
		return err
	}

	if runNoSave || sum.Elapsed < time.Second {
		return nil
	}
	if _, err := s.SaveSession(store.FromSummary(sum, time.Now())); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// pace runs one session until it completes or ctx is cancelled, printing a
// line for every phase.
func pace(ctx context.Context, out io.Writer, session *pacer.Session, pcfg pacer.Config) (pacer.Summary, error) {
	done := make(chan pacer.Summary, 1)
	session.OnComplete(func(sum pacer.Summary) { done <- sum })
	if err := session.Start(pcfg); err != nil {
		return pacer.Summary{}, err
	}

	fmt.Fprintf(out, "Box breathing: %ds phases for %d min\n", pcfg.PhaseDurationSeconds, pcfg.TotalDurationMinutes)

	var sum pacer.Summary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case sum = <-done:
		case <-gctx.Done():
			session.Stop()
			sum = session.Summary()
		}
		return nil
	})
	g.Go(func() error {
		report(gctx, out, session, pcfg.SoundType == pacer.SoundBell)
		return nil
	})
	if err := g.Wait(); err != nil {
		return sum, err
	}

	if sum.Completed {
		fmt.Fprintf(out, "Session complete: %d cycles in %s\n", sum.Cycles, sum.Elapsed.Round(time.Second))
	} else {
		fmt.Fprintf(out, "Session stopped after %s (%d cycles)\n", sum.Elapsed.Round(time.Second), sum.Cycles)
	}
	return sum, nil
}

// report polls the session and prints each new phase until the session
// ends.
func report(ctx context.Context, out io.Writer, session *pacer.Session, bell bool) {
	ticker := time.NewTicker(pacer.TickInterval)
	defer ticker.Stop()

	last := pacer.Phase(-1)
	for {
		st := session.State()
		if !st.Active {
			return
		}
		if st.Phase != last {
			last = st.Phase
			if bell && st.Phase != pacer.PhasePrepare {
				fmt.Fprint(out, "\a")
			}
			fmt.Fprintf(out, "[%s] %-12s cycle %d  %3.0f%%\n",
				clock(st.Elapsed), st.Phase.Label(), st.Cycles+1, st.TotalProgress)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func clock(d time.Duration) string {
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", m, s)
}
