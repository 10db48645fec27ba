package components

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/lingoquiz/internal/ui/theme"
)

// ProgressBar displays a horizontal bar with an optional caption.
type ProgressBar struct {
	Label   string
	Caption string
	Percent float64
	Warning bool
	Width   int
}

// View renders the progress bar.
func (p ProgressBar) View() string {
	var result string

	if p.Label != "" {
		result += lipgloss.NewStyle().Foreground(theme.Text).Render(p.Label) + "  "
	}
	caption := ""
	if p.Caption != "" {
		caption = "  " + p.Caption
	}

	barWidth := p.Width - lipgloss.Width(result) - lipgloss.Width(caption)
	if barWidth < 4 {
		barWidth = 4
	}

	filled := int(float64(barWidth) * p.Percent)
	filled = min(max(filled, 0), barWidth)

	fill := theme.ProgressFilled
	if p.Warning {
		fill = theme.ProgressWarning
	}
	result += fill.Render(strings.Repeat(" ", filled)) +
		theme.ProgressEmpty.Render(strings.Repeat(" ", barWidth-filled))

	if caption != "" {
		style := lipgloss.NewStyle().Foreground(theme.TextDim)
		if p.Warning {
			style = lipgloss.NewStyle().Foreground(theme.Warning).Bold(true)
		}
		result += style.Render(caption)
	}
	return result
}
