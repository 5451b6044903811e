package tui

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/breathr/internal/pacer"
	"github.com/sadopc/breathr/internal/store"
	"go.uber.org/zap"
)

// Box dimensions in cells. Terminal cells are roughly twice as tall as they
// are wide, so the box is twice as wide as it is tall.
const (
	boxRows = 9
	boxCols = 2*boxRows + 1
)

// breatheModel hosts one pacer session. The session runs on a
// ManualScheduler fired from tickMsg, so every callback runs inside Update.
type breatheModel struct {
	store   *store.Store
	session *pacer.Session
	sched   *pacer.ManualScheduler
	clock   pacer.Clock
	log     *zap.Logger
	bell    io.Writer

	// ended receives the summary from the completion callback.
	ended    chan pacer.Summary
	defaults pacer.Config

	lastPhase pacer.Phase
	bar       progress.Model

	width  int
	height int
}

func newBreatheModel(s *store.Store, opts Options) breatheModel {
	sched := pacer.NewManualScheduler()
	session := pacer.New(sched, pacer.WithClock(opts.Clock), pacer.WithLogger(opts.Logger))

	ended := make(chan pacer.Summary, 1)
	session.OnComplete(func(sum pacer.Summary) {
		select {
		case ended <- sum:
		default:
		}
	})

	return breatheModel{
		store:    s,
		session:  session,
		sched:    sched,
		clock:    opts.Clock,
		log:      opts.Logger,
		bell:     opts.Bell,
		ended:    ended,
		defaults: opts.Defaults,
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

func (b *breatheModel) setSize(w, h int) {
	b.width = w
	b.height = h
	b.bar.Width = max(20, min(w-12, 60))
}

// setDefaults changes the configuration used by the next session.
func (b *breatheModel) setDefaults(cfg pacer.Config) {
	b.defaults = cfg
}

func (b breatheModel) running() bool { return b.session.State().Active }

func (b breatheModel) started() bool { return b.session.Summary().ID != "" }

func (b breatheModel) update(msg tea.Msg) (breatheModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return b.tick()

	case sessionEndedMsg:
		return b, b.save(msg.summary, msg.endedAt)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Start):
			return b.start()
		case key.Matches(msg, keys.Stop):
			return b.stop()
		case key.Matches(msg, keys.Pause):
			b.session.TogglePause()
			return b, nil
		case key.Matches(msg, keys.Reset):
			b.session.Reset()
			b.lastPhase = pacer.PhasePrepare
			return b, nil
		}
	}
	return b, nil
}

func (b breatheModel) start() (breatheModel, tea.Cmd) {
	if b.running() {
		return b, nil
	}
	cfg := b.defaults
	if err := b.session.Start(cfg); err != nil {
		return b, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
	}
	b.lastPhase = pacer.PhasePrepare
	return b, func() tea.Msg {
		return statusMsg{text: fmt.Sprintf("Breathing for %d min", cfg.TotalDurationMinutes)}
	}
}

func (b breatheModel) stop() (breatheModel, tea.Cmd) {
	if !b.running() {
		return b, nil
	}
	b.session.Stop()
	sum := b.session.Summary()
	endedAt := b.clock.Now()
	return b, func() tea.Msg {
		return sessionEndedMsg{summary: sum, endedAt: endedAt}
	}
}

func (b breatheModel) tick() (breatheModel, tea.Cmd) {
	b.sched.Fire()

	var cmds []tea.Cmd
	st := b.session.State()
	if st.Active && st.Phase != b.lastPhase {
		b.lastPhase = st.Phase
		cmds = append(cmds, b.ring())
	}

	select {
	case sum := <-b.ended:
		endedAt := b.clock.Now()
		cmds = append(cmds, b.ring(), func() tea.Msg {
			return sessionEndedMsg{summary: sum, endedAt: endedAt}
		})
	default:
	}
	return b, tea.Batch(cmds...)
}

// ring sounds the terminal bell when the current session asks for it.
func (b breatheModel) ring() tea.Cmd {
	if b.bell == nil || b.session.Config().SoundType != pacer.SoundBell {
		return nil
	}
	w := b.bell
	return func() tea.Msg {
		w.Write([]byte("\a"))
		return nil
	}
}

func (b breatheModel) save(sum pacer.Summary, endedAt time.Time) tea.Cmd {
	if sum.ID == "" {
		return nil
	}
	if sum.Elapsed < time.Second {
		return func() tea.Msg { return statusMsg{text: "Session discarded"} }
	}
	st := b.store
	log := b.log
	return func() tea.Msg {
		saved, err := st.SaveSession(store.FromSummary(sum, endedAt))
		if err != nil {
			log.Error("save session", zap.String("session", sum.ID), zap.Error(err))
			return statusMsg{text: fmt.Sprintf("Save error: %v", err), isError: true}
		}
		return sessionSavedMsg{session: saved}
	}
}

func (b breatheModel) view() string {
	w := b.width - 4
	pal := themePalette(b.theme())

	title := titleStyle.Render("Box Breathing")
	cfg := b.defaults
	if b.started() {
		cfg = b.session.Config()
	}
	sub := mutedStyle.Render(fmt.Sprintf("%ds phases · %d min · %s", cfg.PhaseDurationSeconds, cfg.TotalDurationMinutes, cfg.Theme))

	if !b.started() {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Center,
			title, sub, "",
			b.renderBox(pal, pacer.State{}, false),
			"",
			mutedStyle.Render("Press s to begin"),
		))
	}

	st := b.session.State()
	_, traced := b.session.Trace(1)

	label := phaseStyle(pal, st.Phase).Bold(true).Render(st.Phase.Label())
	switch {
	case st.Complete:
		label = successStyle.Bold(true).Render("Session complete")
	case st.Paused:
		label = warningStyle.Bold(true).Render("Paused")
	case !st.Active:
		label = mutedStyle.Render("Stopped")
	}

	total := cfg.TotalDuration()
	stats := mutedStyle.Render(fmt.Sprintf("cycles %d   %s / %s   %3.0f%%",
		st.Cycles, formatClock(st.Elapsed), formatClock(total), st.TotalProgress))

	var controls string
	switch {
	case st.Active:
		controls = mutedStyle.Render("space: pause/resume  x: stop")
	default:
		controls = mutedStyle.Render("s: start  r: reset")
	}

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Center,
		title, sub, "",
		b.renderBox(pal, st, traced),
		"",
		label,
		"",
		b.bar.ViewAs(st.TotalProgress/100),
		stats,
		"",
		controls,
	))
}

func (b breatheModel) theme() string {
	if b.started() {
		return b.session.Config().Theme
	}
	return b.defaults.Theme
}

// renderBox draws the square perimeter, the trace dot and the countdown.
func (b breatheModel) renderBox(pal palette, st pacer.State, traced bool) string {
	edge := lipgloss.NewStyle().Foreground(pal.box)
	cells := make([][]string, boxRows)
	for r := range cells {
		cells[r] = make([]string, boxCols)
		for c := range cells[r] {
			switch {
			case r == 0 || r == boxRows-1:
				cells[r][c] = edge.Render("─")
			case c == 0 || c == boxCols-1:
				cells[r][c] = edge.Render("│")
			default:
				cells[r][c] = " "
			}
		}
	}
	cells[0][0] = edge.Render("╭")
	cells[0][boxCols-1] = edge.Render("╮")
	cells[boxRows-1][0] = edge.Render("╰")
	cells[boxRows-1][boxCols-1] = edge.Render("╯")

	if st.Active || st.Complete {
		text := fmt.Sprintf("%d", st.Countdown)
		if st.Complete {
			text = "✓"
		}
		mid := boxRows / 2
		start := (boxCols - len([]rune(text))) / 2
		for i, r := range []rune(text) {
			cells[mid][start+i] = phaseStyle(pal, st.Phase).Bold(true).Render(string(r))
		}
	}

	if traced {
		p, _ := pacer.TracePosition(st.Phase, st.PhaseProgress, 1)
		r, c := gridCell(p)
		cells[r][c] = phaseStyle(pal, st.Phase).Bold(true).Render("●")
	}

	lines := make([]string, boxRows)
	for r := range cells {
		lines[r] = strings.Join(cells[r], "")
	}
	return strings.Join(lines, "\n")
}

// gridCell maps a point on the unit box onto the character grid.
func gridCell(p pacer.Point) (row, col int) {
	col = int(math.Round((p.X + 1) / 2 * float64(boxCols-1)))
	row = int(math.Round((p.Y + 1) / 2 * float64(boxRows-1)))
	return min(max(row, 0), boxRows-1), min(max(col, 0), boxCols-1)
}

func phaseStyle(pal palette, ph pacer.Phase) lipgloss.Style {
	switch ph {
	case pacer.PhaseInhale:
		return lipgloss.NewStyle().Foreground(pal.inhale)
	case pacer.PhaseHold1, pacer.PhaseHold2:
		return lipgloss.NewStyle().Foreground(pal.hold)
	case pacer.PhaseExhale:
		return lipgloss.NewStyle().Foreground(pal.exhale)
	}
	return mutedStyle
}
