package tui

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/breathr/internal/pacer"
	"github.com/sadopc/breathr/internal/store"
)

type settingsModel struct {
	store  *store.Store
	width  int
	height int

	current    pacer.Config
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	phaseSeconds *string
	totalMinutes *string
	theme        *string
	sound        *string
}

func newSettingsModel(s *store.Store, current pacer.Config) settingsModel {
	ps, tm, th, so := "", "", "", ""
	return settingsModel{
		store:        s,
		current:      current,
		phaseSeconds: &ps,
		totalMinutes: &tm,
		theme:        &th,
		sound:        &so,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s *settingsModel) setCurrent(cfg pacer.Config) {
	s.current = cfg
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, keys.Enter) {
		return s.showForm()
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.phaseSeconds = strconv.Itoa(s.current.PhaseDurationSeconds)
	*s.totalMinutes = strconv.Itoa(s.current.TotalDurationMinutes)
	*s.theme = s.current.Theme
	*s.sound = s.current.SoundType

	themeOpts := make([]huh.Option[string], 0, len(themeNames))
	for _, name := range themeNames {
		themeOpts = append(themeOpts, huh.NewOption(name, name))
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Phase length (seconds)").Value(s.phaseSeconds).Validate(positiveInt),
			huh.NewInput().Title("Session length (minutes)").Value(s.totalMinutes).Validate(positiveInt),
		).Title("Timing"),
		huh.NewGroup(
			huh.NewSelect[string]().Title("Theme").Options(themeOpts...).Value(s.theme),
			huh.NewSelect[string]().Title("Sound").
				Options(
					huh.NewOption("Bell", pacer.SoundBell),
					huh.NewOption("None", pacer.SoundNone),
				).Value(s.sound),
		).Title("Presentation"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		return s, s.saveSettings()
	}

	return s, cmd
}

// formConfig converts the form values into a session config.
func (s settingsModel) formConfig() (pacer.Config, error) {
	phase, err := strconv.Atoi(*s.phaseSeconds)
	if err != nil {
		return pacer.Config{}, fmt.Errorf("phase length: %w", err)
	}
	total, err := strconv.Atoi(*s.totalMinutes)
	if err != nil {
		return pacer.Config{}, fmt.Errorf("session length: %w", err)
	}
	cfg := pacer.Config{
		PhaseDurationSeconds: phase,
		TotalDurationMinutes: total,
		Theme:                *s.theme,
		SoundType:            *s.sound,
	}
	return cfg, cfg.Validate()
}

func (s settingsModel) saveSettings() tea.Cmd {
	cfg, err := s.formConfig()
	st := s.store
	return func() tea.Msg {
		if err == nil {
			err = st.SavePacerConfig(cfg)
		}
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Settings error: %v", err), isError: true}
		}
		return prefsSavedMsg{cfg: cfg}
	}
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	rows := []string{title, ""}
	for _, kv := range [][2]string{
		{"Phase length", fmt.Sprintf("%d s", s.current.PhaseDurationSeconds)},
		{"Session length", fmt.Sprintf("%d min", s.current.TotalDurationMinutes)},
		{"Theme", s.current.Theme},
		{"Sound", s.current.SoundType},
	} {
		label := lipgloss.NewStyle().Width(20).Render(kv[0])
		rows = append(rows, fmt.Sprintf("  %s %s", label, highlightStyle.Render(kv[1])))
	}
	rows = append(rows, "", mutedStyle.Render("Press enter to edit settings"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func positiveInt(v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return errors.New("enter a whole number")
	}
	if n <= 0 {
		return errors.New("must be positive")
	}
	return nil
}
