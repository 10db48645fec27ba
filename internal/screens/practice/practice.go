// Package practice is the free pronunciation practice screen.
package practice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/lingoquiz/internal/api"
	"github.com/abhisek/lingoquiz/internal/audio"
	"github.com/abhisek/lingoquiz/internal/pronunciation"
	"github.com/abhisek/lingoquiz/internal/screen"
	"github.com/abhisek/lingoquiz/internal/ui/components"
	"github.com/abhisek/lingoquiz/internal/ui/layout"
	"github.com/abhisek/lingoquiz/internal/ui/theme"
)

// Levels in the order the number keys select them.
var Levels = []string{"easy", "medium", "hard"}

type sampleMsg struct {
	sample *pronunciation.Sample
	err    error
}

type micInitMsg struct {
	err error
}

type scoredMsg struct {
	ref    pronunciation.SampleRef
	result *pronunciation.Result
	err    error
}

// PracticeScreen implements screen.Screen for pronunciation practice.
type PracticeScreen struct {
	ctx     context.Context
	session *pronunciation.Session

	loading bool
	editing bool
	input   components.TextInput
	initial string
	micErr  string
	errMsg  string
}

var _ screen.Screen = (*PracticeScreen)(nil)
var _ screen.KeyHintProvider = (*PracticeScreen)(nil)
var _ screen.StatusProvider = (*PracticeScreen)(nil)
var _ screen.EscapeHandler = (*PracticeScreen)(nil)

// New creates a practice screen. A non-empty customText is requested as the
// first sample instead of one at the session's level.
func New(ctx context.Context, s *pronunciation.Session, customText string) *PracticeScreen {
	return &PracticeScreen{
		ctx:     ctx,
		session: s,
		input:   components.NewTextInput("Type up to 20 words to practise...", 200),
		initial: customText,
	}
}

func (p *PracticeScreen) Init() tea.Cmd {
	return tea.Batch(p.initMic(), p.fetch(p.initial))
}

func (p *PracticeScreen) Title() string { return "Pronunciation practice" }

// Status shows the session average once something has been scored.
func (p *PracticeScreen) Status() string {
	st := p.session.Stats()
	if st.Count == 0 {
		return p.session.Level()
	}
	return fmt.Sprintf("Average %.0f%% (%d)", st.Average(), st.Count)
}

// HandlesEscape lets Esc close the custom text editor first.
func (p *PracticeScreen) HandlesEscape() bool { return p.editing }

func (p *PracticeScreen) KeyHints() []layout.KeyHint {
	if p.editing {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Use text"},
			{Key: "Esc", Description: "Cancel"},
		}
	}
	return []layout.KeyHint{
		{Key: "R", Description: "Record"},
		{Key: "N", Description: "New sentence"},
		{Key: "C", Description: "Custom text"},
		{Key: "1-3", Description: "Level"},
		{Key: "Esc", Description: "Quit"},
	}
}

func (p *PracticeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case sampleMsg:
		p.loading = false
		if msg.err != nil {
			p.errMsg = "Couldn't get a sentence: " + api.UserMessage(msg.err)
			return p, nil
		}
		p.errMsg = ""
		p.session.SetSample(msg.sample)
		return p, nil

	case micInitMsg:
		p.micErr = ""
		if msg.err != nil {
			p.micErr = micMessage(msg.err)
		}
		return p, nil

	case scoredMsg:
		err := p.session.Complete(p.ctx, msg.ref, msg.result, msg.err)
		switch {
		case errors.Is(err, pronunciation.ErrSampleChanged):
			// Scored a sentence that is no longer on screen.
		case err != nil:
			p.errMsg = "Couldn't score your recording: " + api.UserMessage(err)
		default:
			p.errMsg = ""
		}
		return p, nil

	case tea.KeyMsg:
		if p.editing {
			return p, p.handleEditKey(msg)
		}
		return p, p.handleKey(msg.String())
	}

	if p.editing {
		var cmd tea.Cmd
		p.input, cmd = p.input.Update(msg)
		return p, cmd
	}
	return p, nil
}

func (p *PracticeScreen) handleEditKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		p.editing = false
		p.input.Blur()
		return nil
	case "enter":
		text := strings.TrimSpace(p.input.Value())
		if err := pronunciation.ValidateCustomText(text); err != nil {
			p.errMsg = err.Error()
			return nil
		}
		p.editing = false
		p.input.Blur()
		return p.fetch(text)
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return cmd
}

func (p *PracticeScreen) handleKey(key string) tea.Cmd {
	rec := p.session.Recorder()
	busy := rec.State() == pronunciation.Recording || rec.State() == pronunciation.Processing

	switch key {
	case "r", "R", "space", " ":
		return p.toggleRecording()
	case "n", "N":
		if busy {
			return nil
		}
		return p.fetch("")
	case "c", "C":
		if busy {
			return nil
		}
		p.editing = true
		p.errMsg = ""
		p.input.SetValue("")
		return p.input.Focus()
	case "1", "2", "3":
		if busy {
			return nil
		}
		level := Levels[key[0]-'1']
		if level == p.session.Level() {
			return nil
		}
		p.session.SetLevel(level)
		return p.fetch("")
	}
	return nil
}

func (p *PracticeScreen) toggleRecording() tea.Cmd {
	rec := p.session.Recorder()
	switch rec.State() {
	case pronunciation.Processing:
		return nil
	case pronunciation.Recording:
		clip, ref, err := p.session.StopRecording()
		if err != nil {
			p.errMsg = err.Error()
			return nil
		}
		return p.score(ref, clip)
	}
	if !rec.Ready() {
		return p.initMic()
	}
	if err := p.session.StartRecording(p.ctx); err != nil {
		p.errMsg = micMessage(err)
		return nil
	}
	p.errMsg = ""
	return nil
}

func (p *PracticeScreen) fetch(custom string) tea.Cmd {
	p.loading = true
	ctx, s := p.ctx, p.session
	return func() tea.Msg {
		sample, err := s.Fetch(ctx, custom)
		return sampleMsg{sample: sample, err: err}
	}
}

func (p *PracticeScreen) score(ref pronunciation.SampleRef, clip *audio.Clip) tea.Cmd {
	ctx, s, text := p.ctx, p.session, p.session.Sample().Text
	return func() tea.Msg {
		res, err := s.Process(ctx, text, clip)
		return scoredMsg{ref: ref, result: res, err: err}
	}
}

func (p *PracticeScreen) initMic() tea.Cmd {
	ctx, rec := p.ctx, p.session.Recorder()
	return func() tea.Msg {
		return micInitMsg{err: rec.Init(ctx)}
	}
}

func micMessage(err error) string {
	var de *pronunciation.DeviceError
	if errors.As(err, &de) {
		return de.Hint()
	}
	return err.Error()
}

func (p *PracticeScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)

	var b strings.Builder
	sample := p.session.Sample()
	switch {
	case p.editing:
		b.WriteString(theme.Selected.Render("Your own sentence"))
		b.WriteString("\n\n")
		b.WriteString(p.input.View())
		b.WriteString("\n")
		b.WriteString(dim.Render(fmt.Sprintf("Up to %d words.", pronunciation.MaxCustomWords)))
	case sample == nil && p.loading:
		b.WriteString(dim.Render("Finding a sentence..."))
	case sample == nil:
		b.WriteString(dim.Render("Press n for a sentence or c to type your own."))
	default:
		b.WriteString(p.renderSample(sample, cw-8))
	}

	if p.errMsg != "" {
		b.WriteString("\n\n")
		b.WriteString(theme.ToastError.Render(p.errMsg))
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, components.Card(b.String(), cw))
}

func (p *PracticeScreen) renderSample(sample *pronunciation.Sample, width int) string {
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)

	var b strings.Builder
	label := sample.Level
	if sample.Custom {
		label = "your text"
	}
	if p.loading {
		label += " · loading next..."
	}
	b.WriteString(dim.Render(label))
	b.WriteString("\n\n")

	if words := p.session.Words(); len(words) > 0 {
		b.WriteString(components.LetterMask(words))
	} else {
		b.WriteString(theme.Title.Width(width).Render(sample.Text))
	}
	b.WriteString("\n")
	if sample.IPA != "" {
		b.WriteString(dim.Render("/" + strings.Trim(sample.IPA, "/") + "/"))
		b.WriteString("\n")
	}
	if sample.Translation != "" {
		b.WriteString(dim.Render(sample.Translation))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if p.micErr != "" {
		b.WriteString(theme.ToastError.Render(p.micErr))
		return b.String()
	}
	switch p.session.Recorder().State() {
	case pronunciation.Recording:
		b.WriteString(theme.Incorrect.Render("● Recording...") + dim.Render("  press r to stop"))
	case pronunciation.Processing:
		b.WriteString(theme.Pending.Render("Scoring..."))
	default:
		b.WriteString(p.renderScore(width))
	}
	return b.String()
}

func (p *PracticeScreen) renderScore(width int) string {
	last := p.session.Last()
	if last == nil || last.Score == nil {
		return theme.Selected.Render("Press r and read the sentence aloud")
	}
	sc := last.Score
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)

	bar := components.ProgressBar{
		Label:   "Accuracy",
		Caption: fmt.Sprintf("%.0f%%", sc.Accuracy),
		Percent: sc.Accuracy / 100,
		Warning: sc.Accuracy < 60,
		Width:   width,
	}
	out := bar.View()
	if sc.RealIPA != "" {
		out += "\n" + dim.Render("Expected  /"+sc.RealIPA+"/")
	}
	if sc.MatchedIPA != "" {
		out += "\n" + dim.Render("You said  /"+sc.MatchedIPA+"/")
	}
	return out + "\n\n" + dim.Render("Press r to try again")
}
