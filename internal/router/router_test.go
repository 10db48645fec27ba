package router

import (
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/lingoquiz/internal/screen"
)

type pingMsg struct{}

// stubScreen counts Init calls and pings.
type stubScreen struct {
	title string
	inits int
	pings int
	next  screen.Screen
}

func (s *stubScreen) Init() tea.Cmd {
	s.inits++
	return nil
}

func (s *stubScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if _, ok := msg.(pingMsg); ok {
		s.pings++
		if s.next != nil {
			return s.next, nil
		}
	}
	return s, nil
}

func (s *stubScreen) View(int, int) string { return s.title }
func (s *stubScreen) Title() string        { return s.title }

func TestNewShowsInitial(t *testing.T) {
	r := New(&stubScreen{title: "attempt"})
	if got := r.View(80, 24); got != "attempt" {
		t.Errorf("View() = %q, want %q", got, "attempt")
	}
	if r.Swaps() != 0 {
		t.Errorf("Swaps() = %d, want 0", r.Swaps())
	}
}

func TestReplaceScreenMsgRunsInit(t *testing.T) {
	first := &stubScreen{title: "attempt"}
	r := New(first)

	results := &stubScreen{title: "results"}
	r.Update(ReplaceScreenMsg{Screen: results})

	if r.Active().Title() != "results" {
		t.Errorf("active = %q, want results", r.Active().Title())
	}
	if results.inits != 1 {
		t.Errorf("results Init ran %d times, want 1", results.inits)
	}
	if r.Swaps() != 1 {
		t.Errorf("Swaps() = %d, want 1", r.Swaps())
	}
}

func TestReplacedScreenGetsNoMessages(t *testing.T) {
	first := &stubScreen{title: "attempt"}
	r := New(first)
	second := &stubScreen{title: "results"}
	r.Replace(second)

	r.Update(pingMsg{})
	if first.pings != 0 || second.pings != 1 {
		t.Errorf("pings = %d/%d, want 0/1", first.pings, second.pings)
	}
}

func TestUpdateKeepsReturnedScreen(t *testing.T) {
	second := &stubScreen{title: "second"}
	r := New(&stubScreen{title: "first", next: second})

	r.Update(pingMsg{})
	if r.Active() != second {
		t.Errorf("active = %q, want second", r.Active().Title())
	}
	if second.inits != 0 {
		t.Error("a screen returned from Update is not re-initialised")
	}
}

func TestNilRouterScreen(t *testing.T) {
	r := New(nil)
	if cmd := r.Update(pingMsg{}); cmd != nil {
		t.Error("expected no command without a screen")
	}
	if r.View(10, 10) != "" {
		t.Error("expected empty view without a screen")
	}
}
