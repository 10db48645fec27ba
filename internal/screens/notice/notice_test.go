package notice

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
)

func TestNotFoundMentionsID(t *testing.T) {
	n := NotFound("quiz", "daily-1")
	if n.Title() != "Not found" {
		t.Errorf("Title() = %q", n.Title())
	}
	if v := n.View(80, 20); !strings.Contains(v, `"daily-1"`) {
		t.Errorf("view does not mention the id:\n%s", v)
	}
}

func TestEnterQuits(t *testing.T) {
	n := New("Error", "Couldn't start", "boom")
	_, cmd := n.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}
