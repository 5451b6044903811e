package tui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/breathr/internal/export"
	"github.com/sadopc/breathr/internal/pacer"
	"github.com/sadopc/breathr/internal/store"
	"go.uber.org/zap"
)

// Options configure the TUI. Zero values fall back to the system clock,
// a no-op logger, stderr for the bell and the home directory for exports.
type Options struct {
	// Defaults come from the config file. Preferences saved in the store
	// take precedence.
	Defaults  pacer.Config
	Logger    *zap.Logger
	Clock     pacer.Clock
	Bell      io.Writer
	ExportDir string
}

// App is the root Bubble Tea model.
type App struct {
	store  *store.Store
	log    *zap.Logger
	width  int
	height int

	fileDefaults pacer.Config
	exportDir    string

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	breathe  breatheModel
	history  historyModel
	settings settingsModel

	help        help.Model
	status      string
	statusError bool
}

func NewApp(s *store.Store, opts Options) App {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = pacer.SystemClock{}
	}
	if opts.Bell == nil {
		opts.Bell = os.Stderr
	}
	if opts.ExportDir == "" {
		opts.ExportDir, _ = os.UserHomeDir()
	}

	fileDefaults := opts.Defaults
	effective, err := s.PacerConfig(fileDefaults)
	if err != nil {
		opts.Logger.Warn("load preferences", zap.Error(err))
	}
	opts.Defaults = effective

	h := help.New()
	h.ShowAll = false

	return App{
		store:        s,
		log:          opts.Logger,
		fileDefaults: fileDefaults,
		exportDir:    opts.ExportDir,
		activeView:   viewBreathe,
		breathe:      newBreatheModel(s, opts),
		history:      newHistoryModel(s, opts.Clock.Now),
		settings:     newSettingsModel(s, effective),
		help:         h,
	}
}

func (a App) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(pacer.TickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.breathe.setSize(a.width, contentHeight)
		a.history.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// A form captures all keys until it closes.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, a.quit()
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewBreathe
			return a, nil
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewHistory
			return a, a.history.refresh()
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewSettings
			return a, nil
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, a.refreshCurrentView()
		}

	case tickMsg:
		var cmd tea.Cmd
		a.breathe, cmd = a.breathe.update(msg)
		return a, tea.Batch(tickCmd(), cmd)

	case sessionEndedMsg:
		var cmd tea.Cmd
		a.breathe, cmd = a.breathe.update(msg)
		if msg.summary.Completed {
			a.status = "Session complete"
		} else {
			a.status = "Session stopped"
		}
		a.statusError = false
		return a, cmd

	case sessionSavedMsg:
		a.status = fmt.Sprintf("Saved %s of breathing", formatClock(time.Duration(msg.session.ElapsedSeconds)*time.Second))
		a.statusError = false
		if a.activeView == viewHistory {
			return a, a.history.refresh()
		}
		return a, nil

	case prefsSavedMsg:
		a.applyDefaults(msg.cfg)
		a.status = "Settings saved"
		a.statusError = false
		return a, nil

	case ConfigReloadedMsg:
		if msg.Config == nil {
			return a, nil
		}
		a.fileDefaults = msg.Config.Pacer.SessionConfig()
		effective, err := a.store.PacerConfig(a.fileDefaults)
		if err != nil {
			a.log.Warn("load preferences", zap.Error(err))
		}
		a.applyDefaults(effective)
		a.status = "Config reloaded"
		a.statusError = false
		return a, nil

	case statusMsg:
		a.status = msg.text
		a.statusError = msg.isError
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusError = false
		a.exportPicking = false
		return a, nil

	case historyDataMsg:
		var cmd tea.Cmd
		a.history, cmd = a.history.update(msg)
		return a, cmd
	}

	return a.updateActiveView(msg)
}

// applyDefaults sets the configuration for the next session.
func (a *App) applyDefaults(cfg pacer.Config) {
	a.breathe.setDefaults(cfg)
	a.settings.setCurrent(cfg)
}

// quit stops a running session so its partial result is saved first.
func (a App) quit() tea.Cmd {
	if !a.breathe.running() {
		return tea.Quit
	}
	a.breathe.session.Stop()
	sum := a.breathe.session.Summary()
	save := a.breathe.save(sum, a.breathe.clock.Now())
	if save == nil {
		return tea.Quit
	}
	return tea.Sequence(save, tea.Quit)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewBreathe:
		a.breathe, cmd = a.breathe.update(msg)
	case viewHistory:
		a.history, cmd = a.history.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	return a.activeView == viewSettings && a.settings.formActive
}

func (a App) refreshCurrentView() tea.Cmd {
	if a.activeView == viewHistory {
		return a.history.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewBreathe:
		content = a.breathe.view()
	case viewHistory:
		content = a.history.view()
	case viewSettings:
		content = a.settings.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(a.height-headerHeight-footerHeight, 1)

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("breathr")
	gap := max(a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusError {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	// Session indicator while breathing on another tab
	sessionInfo := ""
	if st := a.breathe.session.State(); st.Active && a.activeView != viewBreathe {
		sessionInfo = successStyle.Render(fmt.Sprintf(" ● %s %s", st.Phase.Label(), formatClock(st.Elapsed)))
		if st.Paused {
			sessionInfo = warningStyle.Render(" ⏸ " + formatClock(st.Elapsed))
		}
	}

	left := footerStyle.Render(helpView)
	right := sessionInfo + status

	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Format")
	formats := []string{"CSV", "JSON"}
	rows := []string{title, ""}
	for i, f := range formats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "", mutedStyle.Render("  enter: export  esc: cancel"))

	return activePanelStyle.Width(a.width - 4).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < 1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	st := a.store
	dir := a.exportDir
	dateStr := a.breathe.clock.Now().Format("2006-01-02")
	return func() tea.Msg {
		sessions, err := st.ListSessions(store.SessionFilter{})
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}

		var path string
		if format == 0 {
			path = filepath.Join(dir, fmt.Sprintf("breathr-export-%s.csv", dateStr))
			if err := export.ToCSV(sessions, path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
		} else {
			path = filepath.Join(dir, fmt.Sprintf("breathr-export-%s.json", dateStr))
			if err := export.ToJSON(sessions, path); err != nil {
				return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
			}
		}

		return exportDoneMsg{path: path}
	}
}
