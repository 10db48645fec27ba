package components

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/lingoquiz/internal/pronunciation"
	"github.com/abhisek/lingoquiz/internal/ui/theme"
)

// LetterMask colours each letter of the reference words by whether it was
// pronounced correctly.
func LetterMask(words []pronunciation.Word) string {
	good := lipgloss.NewStyle().Foreground(theme.Success).Bold(true)
	bad := lipgloss.NewStyle().Foreground(theme.Error).Bold(true).Underline(true)

	parts := make([]string, 0, len(words))
	for _, w := range words {
		var b strings.Builder
		for _, l := range w.Letters {
			if l.Correct {
				b.WriteString(good.Render(string(l.Char)))
			} else {
				b.WriteString(bad.Render(string(l.Char)))
			}
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, " ")
}
