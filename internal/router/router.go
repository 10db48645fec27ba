// Package router holds the screen the app is showing and swaps it when a
// screen hands off to the next one, e.g. an attempt to its results.
package router

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/lingoquiz/internal/screen"
)

// ReplaceScreenMsg swaps the active screen for a new one. The replaced
// screen is dropped; there is no way back to a submitted attempt.
type ReplaceScreenMsg struct {
	Screen screen.Screen
}

// Router owns the active screen.
type Router struct {
	active screen.Screen
	swaps  int
}

// New creates a Router showing initial.
func New(initial screen.Screen) *Router {
	return &Router{active: initial}
}

// Replace makes s the active screen and returns its Init command.
func (r *Router) Replace(s screen.Screen) tea.Cmd {
	r.active = s
	r.swaps++
	return s.Init()
}

// Active returns the screen being shown.
func (r *Router) Active() screen.Screen {
	return r.active
}

// Swaps counts how many times the active screen has been replaced.
func (r *Router) Swaps() int {
	return r.swaps
}

// Update handles ReplaceScreenMsg and forwards everything else to the
// active screen.
func (r *Router) Update(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(ReplaceScreenMsg); ok {
		return r.Replace(msg.Screen)
	}
	if r.active == nil {
		return nil
	}
	updated, cmd := r.active.Update(msg)
	r.active = updated
	return cmd
}

// View renders the active screen.
func (r *Router) View(width, height int) string {
	if r.active == nil {
		return ""
	}
	return r.active.View(width, height)
}
