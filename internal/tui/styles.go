package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	colorPrimary   = lipgloss.Color("#6C63FF")
	colorMuted     = lipgloss.Color("#666666")
	colorSuccess   = lipgloss.Color("#2ECC71")
	colorWarning   = lipgloss.Color("#F39C12")
	colorError     = lipgloss.Color("#E74C3C")
	colorFg        = lipgloss.Color("#C0CAF5")
	colorSubtle    = lipgloss.Color("#414868")
	colorHighlight = lipgloss.Color("#7AA2F7")
)

// palette colours the breathing screen for one theme.
type palette struct {
	inhale lipgloss.Color
	hold   lipgloss.Color
	exhale lipgloss.Color
	box    lipgloss.Color
}

var themes = map[string]palette{
	"ocean": {
		inhale: lipgloss.Color("#4FC3F7"),
		hold:   lipgloss.Color("#7AA2F7"),
		exhale: lipgloss.Color("#2EC4B6"),
		box:    lipgloss.Color("#2B4C7E"),
	},
	"forest": {
		inhale: lipgloss.Color("#A3D977"),
		hold:   lipgloss.Color("#E0C068"),
		exhale: lipgloss.Color("#2ECC71"),
		box:    lipgloss.Color("#3B5D3A"),
	},
	"sunset": {
		inhale: lipgloss.Color("#FFB26B"),
		hold:   lipgloss.Color("#FF6B6B"),
		exhale: lipgloss.Color("#C77DFF"),
		box:    lipgloss.Color("#6B3A4E"),
	},
	"lavender": {
		inhale: lipgloss.Color("#C3B1E1"),
		hold:   lipgloss.Color("#E6E6FA"),
		exhale: lipgloss.Color("#9F86C0"),
		box:    lipgloss.Color("#4A3F6B"),
	},
}

var themeNames = []string{"ocean", "forest", "sunset", "lavender"}

// themePalette falls back to ocean for unknown theme tags.
func themePalette(name string) palette {
	if p, ok := themes[name]; ok {
		return p
	}
	return themes["ocean"]
}

// Styles
var (
	// Tabs
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(colorPrimary).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(colorMuted).
				Padding(0, 2)

	// Panels
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSubtle).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Padding(1, 2)

	// Text
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorFg)

	successStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	highlightStyle = lipgloss.NewStyle().
			Foreground(colorHighlight)

	// Header/footer
	headerStyle = lipgloss.NewStyle().
			Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1)

	// List items
	selectedItemStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	normalItemStyle = lipgloss.NewStyle().
			Foreground(colorFg)
)
