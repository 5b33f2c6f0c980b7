package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"decompdesk/internal/diff"
)

var (
	columnTitleStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	mismatchStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	gapStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// DiffView renders a folded diff as two columns, target on the left and the
// current build on the right. Lines that differ are highlighted.
type DiffView struct {
	// Width is the total width; each column gets half minus the gutter.
	Width int
	// Color disables styling when false.
	Color bool
}

// Render draws result with a score footer.
func (v DiffView) Render(result diff.Result) string {
	width := v.Width
	if width <= 0 {
		width = 120
	}
	colWidth := max((width-3)/2, 10)

	baseLines := diff.Lines(result.BaseText)
	currentLines := diff.Lines(result.CurrentText)

	var left, right strings.Builder
	left.WriteString(v.style(columnTitleStyle, pad("TARGET", colWidth)))
	right.WriteString(v.style(columnTitleStyle, pad("CURRENT", colWidth)))

	n := max(len(baseLines), len(currentLines))
	for i := 0; i < n; i++ {
		base := lineAt(baseLines, i)
		current := lineAt(currentLines, i)
		style := lipgloss.NewStyle()
		switch {
		case base == "" || current == "":
			style = gapStyle
		case base != current:
			style = mismatchStyle
		}
		left.WriteByte('\n')
		left.WriteString(v.style(style, pad(TruncateWithEllipsis(base, colWidth), colWidth)))
		right.WriteByte('\n')
		right.WriteString(v.style(style, pad(TruncateWithEllipsis(current, colWidth), colWidth)))
	}

	gutter := strings.TrimSuffix(strings.Repeat(" | \n", n+1), "\n")
	body := lipgloss.JoinHorizontal(lipgloss.Top, left.String(), gutter, right.String())
	return body + "\n\n" + v.Score(result) + "\n"
}

// Score renders "score 150/600 (75.00%)".
func (v DiffView) Score(result diff.Result) string {
	line := fmt.Sprintf("score %d/%d (%s)", result.CurrentScore, result.MaxScore, result.MatchPercent())
	return v.style(ScoreStyle(result.MatchRatio()), line)
}

func (v DiffView) style(s lipgloss.Style, text string) string {
	if !v.Color {
		return text
	}
	return s.Render(text)
}

func lineAt(lines []string, i int) string {
	if i < len(lines) {
		return lines[i]
	}
	return ""
}
