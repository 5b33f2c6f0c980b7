package tui

import "github.com/charmbracelet/lipgloss"

var (
	// HeaderStyle styles the column header row.
	HeaderStyle = lipgloss.NewStyle().Bold(true)

	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	activeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	pendingStyle = lipgloss.NewStyle().Faint(true)

	statusStyles = map[string]lipgloss.Style{
		"installed": okStyle,
		"removed":   okStyle,
		"succeeded": okStyle,
		"ok":        okStyle,

		"downloading": activeStyle,
		"extracting":  activeStyle,
		"removing":    activeStyle,
		"compiling":   activeStyle,
		"diffing":     activeStyle,

		"raw":           warnStyle,
		"skipped":       warnStyle,
		"missing":       warnStyle,
		"no toolchain":  warnStyle,
		"not installed": warnStyle,

		"error":  errorStyle,
		"failed": errorStyle,

		"pending": pendingStyle,
	}
)

// StatusStyle returns the lipgloss style for the given status string.
func StatusStyle(status string) lipgloss.Style {
	if s, ok := statusStyles[status]; ok {
		return s
	}
	return lipgloss.NewStyle()
}

// ScoreStyle colours a diff score: green for a perfect match, yellow for a
// close one and red otherwise.
func ScoreStyle(ratio float64) lipgloss.Style {
	switch {
	case ratio >= 1:
		return okStyle
	case ratio >= 0.9:
		return warnStyle
	default:
		return errorStyle
	}
}
