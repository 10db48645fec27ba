package practice

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/lingoquiz/internal/audio"
	"github.com/abhisek/lingoquiz/internal/pronunciation"
)

type stubSource struct {
	levels  []string
	customs []string
	err     error
}

func (s *stubSource) Sample(_ context.Context, level, custom string) (*pronunciation.Sample, error) {
	s.levels = append(s.levels, level)
	s.customs = append(s.customs, custom)
	if s.err != nil {
		return nil, s.err
	}
	text := "See you later"
	if custom != "" {
		text = custom
	}
	return &pronunciation.Sample{ID: level + ":" + text, Text: text, Level: level, Custom: custom != ""}, nil
}

type stubBackend struct {
	accuracy float64
	mask     string
}

func (b *stubBackend) Upload(_ context.Context, _ *audio.Clip) (string, error) {
	return "https://cdn.example.com/p.wav", nil
}

func (b *stubBackend) Score(_ context.Context, _, _ string) (*pronunciation.Score, error) {
	return &pronunciation.Score{Accuracy: b.accuracy, LetterMask: b.mask}, nil
}

func newScreen(src *stubSource, backend *stubBackend, custom string) *PracticeScreen {
	rec := pronunciation.NewRecorder(audio.NewFakeDevice())
	sess := pronunciation.NewSession(src, rec, pronunciation.NewProcessor(backend, backend), nil, "easy")
	return New(context.Background(), sess, custom)
}

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func exec(p *PracticeScreen, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			exec(p, c)
		}
		return
	}
	p.Update(msg)
}

func TestInitFetchesSampleAndProbesMicrophone(t *testing.T) {
	src := &stubSource{}
	p := newScreen(src, &stubBackend{}, "")
	exec(p, p.Init())

	if p.session.Sample() == nil || p.session.Sample().Text != "See you later" {
		t.Fatalf("sample = %+v", p.session.Sample())
	}
	if !p.session.Recorder().Ready() {
		t.Error("microphone should be ready")
	}
	if p.Status() != "easy" {
		t.Errorf("status = %q", p.Status())
	}
}

func TestRecordAndScore(t *testing.T) {
	p := newScreen(&stubSource{}, &stubBackend{accuracy: 75, mask: "111 110 01111"}, "")
	exec(p, p.Init())

	p.Update(keyPress('r'))
	if p.session.Recorder().State() != pronunciation.Recording {
		t.Fatalf("state = %v", p.session.Recorder().State())
	}
	_, cmd := p.Update(keyPress('r'))
	exec(p, cmd)

	if p.session.Recorder().State() != pronunciation.Completed {
		t.Fatalf("state = %v, want completed", p.session.Recorder().State())
	}
	if got := p.session.Stats().Average(); got != 75 {
		t.Errorf("average = %v", got)
	}
	if !strings.Contains(p.Status(), "Average 75%") {
		t.Errorf("status = %q", p.Status())
	}
	if len(p.session.Words()) != 3 {
		t.Errorf("words = %d", len(p.session.Words()))
	}
}

func TestNewSampleDropsInFlightScore(t *testing.T) {
	p := newScreen(&stubSource{}, &stubBackend{accuracy: 90, mask: "111 111 11111"}, "")
	exec(p, p.Init())

	p.Update(keyPress('r'))
	_, scoring := p.Update(keyPress('r'))

	// A new level fetches a new sentence before the score arrives.
	p.session.SetSample(&pronunciation.Sample{ID: "other", Text: "Thank you"})
	exec(p, scoring)

	if p.session.Stats().Count != 0 {
		t.Error("a score for the previous sentence was counted")
	}
	if p.errMsg != "" {
		t.Errorf("errMsg = %q", p.errMsg)
	}
}

func TestLevelKeysFetchAtLevel(t *testing.T) {
	src := &stubSource{}
	p := newScreen(src, &stubBackend{}, "")
	exec(p, p.Init())

	_, cmd := p.Update(keyPress('3'))
	exec(p, cmd)
	if p.session.Level() != "hard" || src.levels[len(src.levels)-1] != "hard" {
		t.Errorf("level = %q, fetched %v", p.session.Level(), src.levels)
	}

	_, cmd = p.Update(keyPress('3'))
	if cmd != nil {
		t.Error("selecting the current level should not refetch")
	}
}

func TestCustomTextValidation(t *testing.T) {
	src := &stubSource{}
	p := newScreen(src, &stubBackend{}, "")
	exec(p, p.Init())

	p.Update(keyPress('c'))
	if !p.editing || !p.HandlesEscape() {
		t.Fatal("expected the editor to open")
	}
	p.input.SetValue(strings.Repeat("word ", 21))
	_, cmd := p.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd != nil || !p.editing {
		t.Fatal("over-long text must be rejected locally")
	}
	if !strings.Contains(p.errMsg, "20 words") {
		t.Errorf("errMsg = %q", p.errMsg)
	}

	p.input.SetValue("  How are you today  ")
	_, cmd = p.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	exec(p, cmd)
	if p.editing {
		t.Error("editor should close")
	}
	if got := p.session.Sample(); got == nil || got.Text != "How are you today" || !got.Custom {
		t.Errorf("sample = %+v", got)
	}
}

func TestInitialCustomText(t *testing.T) {
	src := &stubSource{}
	p := newScreen(src, &stubBackend{}, "Nice to meet you")
	exec(p, p.Init())
	if src.customs[0] != "Nice to meet you" {
		t.Errorf("customs = %v", src.customs)
	}
}

func TestFetchFailureIsShown(t *testing.T) {
	p := newScreen(&stubSource{err: errors.New("offline")}, &stubBackend{}, "")
	exec(p, p.Init())
	if !strings.Contains(p.View(100, 40), "Couldn't get a sentence") {
		t.Error("expected the fetch error in the view")
	}
}
