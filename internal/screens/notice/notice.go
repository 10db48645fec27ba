// Package notice shows a single message in place of a screen that could
// not be opened, such as a quiz that does not exist.
package notice

import (
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/lingoquiz/internal/screen"
	"github.com/abhisek/lingoquiz/internal/ui/layout"
	"github.com/abhisek/lingoquiz/internal/ui/theme"
)

// NoticeScreen is a titled message the learner dismisses.
type NoticeScreen struct {
	title   string
	heading string
	message string
}

var _ screen.Screen = (*NoticeScreen)(nil)
var _ screen.KeyHintProvider = (*NoticeScreen)(nil)

// New creates a notice with a heading and an explanatory message.
func New(title, heading, message string) *NoticeScreen {
	return &NoticeScreen{title: title, heading: heading, message: message}
}

// NotFound is the notice for a quiz or attempt that does not exist.
func NotFound(what, id string) *NoticeScreen {
	return New("Not found", what+" not found",
		"There is no "+what+" with id \""+id+"\".\nCheck the link you were given and try again.")
}

func (n *NoticeScreen) Init() tea.Cmd {
	return nil
}

func (n *NoticeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "enter", "q":
			return n, tea.Quit
		}
	}
	return n, nil
}

func (n *NoticeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{{Key: "Enter", Description: "Close"}}
}

func (n *NoticeScreen) View(width, height int) string {
	heading := theme.Incorrect.Render(n.heading)
	body := lipgloss.NewStyle().Foreground(theme.Text).Render(n.message)

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(heading + "\n\n" + body)
}

func (n *NoticeScreen) Title() string {
	return n.title
}
