// Package screen defines what the app needs from a screen.
package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/lingoquiz/internal/ui/layout"
)

// Screen is one full view: attempt, results, practice or a notice. The app
// draws the header and footer; View fills the area between them.
type Screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Screen, tea.Cmd)
	View(width, height int) string
	Title() string
}

// KeyHintProvider replaces the default footer hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// StatusProvider shows a short status on the right of the header, such as
// the time left on an attempt.
type StatusProvider interface {
	Status() string
}

// EscapeHandler is implemented by screens that use Esc themselves, e.g. to
// close a dialog. When HandlesEscape is false, Esc quits the app.
type EscapeHandler interface {
	HandlesEscape() bool
}
