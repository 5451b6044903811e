package tui

import (
	"fmt"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/sadopc/breathr/internal/store"
)

type historyMode int

const (
	historyDaily historyMode = iota
	historyWeekly
)

const recentLimit = 8

type historyModel struct {
	store  *store.Store
	width  int
	height int

	mode      historyMode
	offset    int // 7-day blocks or weeks back from today (0 = current)
	summaries []store.DailySummary
	recent    []store.BreathingSession
	stats     store.Stats
	now       func() time.Time

	chart barchart.Model
}

func newHistoryModel(s *store.Store, now func() time.Time) historyModel {
	return historyModel{
		store: s,
		now:   now,
		chart: barchart.New(60, 12),
	}
}

func (h *historyModel) setSize(w, ht int) {
	h.width = w
	h.height = ht
}

type historyDataMsg struct {
	summaries []store.DailySummary
	recent    []store.BreathingSession
	stats     store.Stats
	err       error
}

func (h historyModel) refresh() tea.Cmd {
	from, to := h.dateRange()
	st := h.store
	now := h.now()
	return func() tea.Msg {
		summaries, err := st.GetDailySummary(from, to)
		if err != nil {
			return historyDataMsg{err: err}
		}
		recent, err := st.ListSessions(store.SessionFilter{From: &from, To: &to, Limit: recentLimit})
		if err != nil {
			return historyDataMsg{err: err}
		}
		stats, err := st.StatsAt(now)
		if err != nil {
			return historyDataMsg{err: err}
		}
		return historyDataMsg{summaries: summaries, recent: recent, stats: stats}
	}
}

func (h historyModel) dateRange() (time.Time, time.Time) {
	now := h.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch h.mode {
	case historyWeekly:
		weekday := today.Weekday()
		if weekday == time.Sunday {
			weekday = 7
		}
		startOfWeek := today.AddDate(0, 0, -int(weekday-time.Monday))
		startOfWeek = startOfWeek.AddDate(0, 0, -7*h.offset)
		return startOfWeek, startOfWeek.AddDate(0, 0, 7)
	default:
		end := today.AddDate(0, 0, 1-7*h.offset)
		return end.AddDate(0, 0, -7), end
	}
}

func (h historyModel) update(msg tea.Msg) (historyModel, tea.Cmd) {
	switch msg := msg.(type) {
	case historyDataMsg:
		if msg.err != nil {
			return h, func() tea.Msg {
				return statusMsg{text: fmt.Sprintf("History error: %v", msg.err), isError: true}
			}
		}
		h.summaries = msg.summaries
		h.recent = msg.recent
		h.stats = msg.stats
		h.buildChart()
		return h, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			h.offset++
			return h, h.refresh()
		case key.Matches(msg, keys.Right):
			if h.offset > 0 {
				h.offset--
			}
			return h, h.refresh()
		case key.Matches(msg, keys.Mode):
			if h.mode == historyDaily {
				h.mode = historyWeekly
			} else {
				h.mode = historyDaily
			}
			h.offset = 0
			return h, h.refresh()
		}
	}
	return h, nil
}

func (h *historyModel) buildChart() {
	chartWidth := max(h.width-8, 20)
	chartHeight := 10
	if h.height > 34 {
		chartHeight = 14
	}

	h.chart = barchart.New(chartWidth, chartHeight)

	byDay := make(map[string]store.DailySummary, len(h.summaries))
	for _, s := range h.summaries {
		byDay[s.Date] = s
	}

	barStyle := lipgloss.NewStyle().Foreground(colorHighlight)
	from, to := h.dateRange()
	var bars []barchart.BarData
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		minutes := float64(byDay[d.Format("2006-01-02")].TotalSeconds) / 60
		bars = append(bars, barchart.BarData{
			Label: d.Format("Mon 02"),
			Values: []barchart.BarValue{{
				Name:  "minutes",
				Value: minutes,
				Style: barStyle,
			}},
		})
	}

	h.chart.PushAll(bars)
	h.chart.Draw()
}

func (h historyModel) view() string {
	w := h.width - 4

	dailyTab := inactiveTabStyle.Render("Daily")
	weeklyTab := inactiveTabStyle.Render("Weekly")
	if h.mode == historyDaily {
		dailyTab = activeTabStyle.Render("Daily")
	} else {
		weeklyTab = activeTabStyle.Render("Weekly")
	}
	modeTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, dailyTab, weeklyTab)

	from, to := h.dateRange()
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s - %s", from.Format("Jan 02"), to.Add(-24*time.Hour).Format("Jan 02, 2006")))

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("History"), "  ", modeTabs, "  ", dateLabel,
	)

	nav := mutedStyle.Render("  ←/→: navigate  m: daily/weekly  e: export")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", h.renderStats(), "", h.chart.View(), "", h.renderRecent(), "", nav,
		),
	)
}

func (h historyModel) renderStats() string {
	st := h.stats
	return fmt.Sprintf("  %s sessions  %s completed  %s total  %s day streak (best %d)",
		highlightStyle.Render(fmt.Sprint(st.Sessions)),
		successStyle.Render(fmt.Sprint(st.Completed)),
		highlightStyle.Render(formatSeconds(st.TotalSeconds)),
		highlightStyle.Render(fmt.Sprint(st.CurrentStreak)),
		st.LongestStreak,
	)
}

func (h historyModel) renderRecent() string {
	if len(h.recent) == 0 {
		return mutedStyle.Render("  No sessions in this period")
	}
	return sessionTable(h.recent)
}

// sessionTable renders sessions as a bordered table. The CLI history
// command reuses it.
func sessionTable(sessions []store.BreathingSession) string {
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		status := "stopped"
		if s.Completed {
			status = "done"
		}
		rows = append(rows, []string{
			s.StartedAt.Local().Format("Jan 02 15:04"),
			fmt.Sprintf("%ds", s.PhaseSeconds),
			fmt.Sprintf("%dm", s.TotalMinutes),
			formatMinutes(s.ElapsedSeconds),
			fmt.Sprint(s.Cycles),
			status,
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorSubtle)).
		Headers("Started", "Phase", "Target", "Breathed", "Cycles", "Status").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			st := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return st.Foreground(colorMuted).Bold(true)
			}
			if col == 5 && row >= 0 && row < len(rows) && rows[row][5] == "done" {
				return st.Foreground(colorSuccess)
			}
			return st.Foreground(colorFg)
		}).
		String()
}

// SessionTable renders sessions the way the history view does.
func SessionTable(sessions []store.BreathingSession) string {
	return sessionTable(sessions)
}
