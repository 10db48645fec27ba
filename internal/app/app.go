// Package app hosts the Bubble Tea program around the active screen.
package app

import (
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/lingoquiz/internal/router"
	"github.com/abhisek/lingoquiz/internal/screen"
	"github.com/abhisek/lingoquiz/internal/ui/layout"
)

var quitHint = layout.KeyHint{Key: "Ctrl+C", Description: "Quit"}

// AppModel is the root Bubble Tea model. It owns the terminal size and the
// frame; screens only draw their content area.
type AppModel struct {
	router *router.Router
	width  int
	height int
}

func NewAppModel(initial screen.Screen) AppModel {
	return AppModel{router: router.New(initial)}
}

func (m AppModel) Init() tea.Cmd {
	if s := m.router.Active(); s != nil {
		return s.Init()
	}
	return nil
}

// Update quits on Ctrl+C, and on Esc unless the screen claims it. Everything
// else goes to the router.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if h, ok := m.router.Active().(screen.EscapeHandler); !ok || !h.HandlesEscape() {
				return m, tea.Quit
			}
		}
	}
	return m, m.router.Update(msg)
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true
	switch {
	case m.width == 0 || m.height == 0:
		return v
	case layout.IsTooSmall(m.width, m.height):
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	var title, status string
	if active != nil {
		title = active.Title()
	}
	if sp, ok := active.(screen.StatusProvider); ok {
		status = sp.Status()
	}

	header := layout.RenderHeader(title, status, m.width)
	footer := layout.RenderFooter(hints(active), m.width)
	body := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 0)

	v.SetContent(layout.RenderFrame(header, m.router.View(m.width, body), footer, m.width, m.height))
	return v
}

func hints(active screen.Screen) []layout.KeyHint {
	if kp, ok := active.(screen.KeyHintProvider); ok {
		if h := kp.KeyHints(); len(h) > 0 {
			return append(h, quitHint)
		}
	}
	return []layout.KeyHint{{Key: "Esc", Description: "Close"}, quitHint}
}

// Run shows initial full screen and blocks until the program exits.
func Run(initial screen.Screen) error {
	_, err := tea.NewProgram(NewAppModel(initial)).Run()
	return err
}
