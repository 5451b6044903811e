package tui

import (
	"fmt"
	"time"

	"github.com/sadopc/breathr/internal/config"
	"github.com/sadopc/breathr/internal/pacer"
	"github.com/sadopc/breathr/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewBreathe viewState = iota
	viewHistory
	viewSettings
)

var viewNames = []string{"Breathe", "History", "Settings"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

// sessionEndedMsg carries a session that completed or was stopped.
type sessionEndedMsg struct {
	summary pacer.Summary
	endedAt time.Time
}

type sessionSavedMsg struct {
	session *store.BreathingSession
}

// prefsSavedMsg is sent after the settings form stores new preferences.
type prefsSavedMsg struct {
	cfg pacer.Config
}

type exportDoneMsg struct {
	path string
}

// ConfigReloadedMsg delivers a config file that changed on disk.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// --- Helpers ---

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatSeconds(secs int64) string {
	return formatDuration(time.Duration(secs) * time.Second)
}

func formatMinutes(secs int64) string {
	return fmt.Sprintf("%.1fm", float64(secs)/60)
}

// formatClock renders d as mm:ss.
func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", m, s)
}
