// Package layout draws the frame around every screen: a header with the
// screen title and status, and a footer of key hints.
package layout

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/lingoquiz/internal/ui/theme"
)

// The attempt screen needs room for a question card, two progress bars
// and a toast line.
const (
	MinWidth  = 72
	MinHeight = 22
)

const brand = "LingoQuiz"

// KeyHint is one key and what it does, shown in the footer.
type KeyHint struct {
	Key         string
	Description string
}

func IsTooSmall(width, height int) bool {
	return width < MinWidth || height < MinHeight
}

// RenderMinSizeMessage asks the learner to enlarge the terminal.
func RenderMinSizeMessage(width, height int) string {
	body := fmt.Sprintf("%s needs a %d×%d terminal.\nThis one is %d×%d.\n\nResize the window to continue.",
		brand, MinWidth, MinHeight, width, height)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		lipgloss.NewStyle().Foreground(theme.Text).Align(lipgloss.Center).Render(body))
}

func bar(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Width(width).
		Background(theme.BgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Padding(0, 1)
}

// RenderHeader puts the brand on the left, the title in the middle and the
// status (countdown, practice average) on the right.
func RenderHeader(title, status string, width int) string {
	inner := max(width-4, 0)
	third := inner / 3

	left := lipgloss.NewStyle().Width(third).Foreground(theme.Primary).Bold(true).Render(brand)
	right := lipgloss.NewStyle().Width(third).Align(lipgloss.Right).Foreground(theme.Accent).Render(status)
	center := lipgloss.NewStyle().Width(inner - 2*third).Align(lipgloss.Center).Foreground(theme.Text).
		Render(truncate(title, inner-2*third))

	return bar(width).Render(lipgloss.JoinHorizontal(lipgloss.Top, left, center, right))
}

// RenderFooter lists the hints, dropping those that do not fit.
func RenderFooter(hints []KeyHint, width int) string {
	inner := max(width-4, 0)
	var b strings.Builder
	used := 0
	for _, h := range hints {
		part := theme.HintKey.Render(h.Key) + " " + theme.HintText.Render(h.Description)
		sep := ""
		if used > 0 {
			sep = "   "
		}
		w := lipgloss.Width(sep + part)
		if used+w > inner {
			break
		}
		b.WriteString(sep + part)
		used += w
	}
	return bar(width).Render(b.String())
}

// RenderFrame stacks header, content and footer, giving the content all
// the height the bars leave.
func RenderFrame(header, content, footer string, width, height int) string {
	rest := max(height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	body := lipgloss.NewStyle().Width(width).Height(rest).MaxHeight(rest).Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
