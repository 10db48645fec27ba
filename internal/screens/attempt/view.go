package attempt

import (
	"fmt"
	"slices"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/lingoquiz/internal/pronunciation"
	"github.com/abhisek/lingoquiz/internal/quiz"
	"github.com/abhisek/lingoquiz/internal/timer"
	"github.com/abhisek/lingoquiz/internal/ui/components"
	"github.com/abhisek/lingoquiz/internal/ui/theme"
)

var typeLabels = map[quiz.QuestionType]string{
	quiz.MultipleChoice: "Multiple choice",
	quiz.FillInTheBlank: "Fill in the blanks",
	quiz.Pronunciation:  "Pronunciation",
	quiz.Listening:      "Listening",
	quiz.TrueFalse:      "True or false",
}

// sync rebuilds the widgets when the question on screen has changed.
func (a *AttemptScreen) sync() {
	idx := a.session.Nav.Current()
	if idx == a.shown {
		a.syncAnswer()
		return
	}
	a.shown = idx
	a.focus = 0
	a.blanks = nil

	q := a.session.Question()
	switch q.Type {
	case quiz.MultipleChoice, quiz.Listening:
		opts := make([]string, len(q.Options))
		for i, o := range q.Options {
			opts[i] = o.Text
		}
		a.choices = components.NewChoiceList(opts)
	case quiz.TrueFalse:
		a.choices = components.NewChoiceList([]string{"True", "False"})
	case quiz.FillInTheBlank:
		for i := range a.session.Capture.Blanks {
			in := components.NewTextInput(fmt.Sprintf("blank %d", i+1), 40)
			in.SetValue(a.session.Capture.Blanks[i])
			a.blanks = append(a.blanks, in)
		}
	}
	a.syncAnswer()
	if a.choices.Chosen >= 0 {
		a.choices.Cursor = a.choices.Chosen
	}
}

// syncAnswer copies the captured answer and its verdict into the widgets.
func (a *AttemptScreen) syncAnswer() {
	q := a.session.Question()
	c := a.session.Capture
	rec := a.session.Book.Get(q.ID)

	switch q.Type {
	case quiz.MultipleChoice, quiz.Listening:
		a.choices.Chosen = -1
		a.choices.Verdict = nil
		for i, o := range q.Options {
			if o.ID == c.SelectedOptionID {
				a.choices.Chosen = i
			}
		}
		if rec != nil && rec.Answer.OptionID == c.SelectedOptionID {
			a.choices.Verdict = rec.Correct
		}
	case quiz.TrueFalse:
		a.choices.Chosen = -1
		a.choices.Verdict = nil
		if c.TrueFalse != nil {
			a.choices.Chosen = 1
			if *c.TrueFalse {
				a.choices.Chosen = 0
			}
			if rec != nil && rec.Answer.TrueFalse != nil && *rec.Answer.TrueFalse == *c.TrueFalse {
				a.choices.Verdict = rec.Correct
			}
		}
	case quiz.FillInTheBlank:
		var verdict *bool
		if rec != nil && slices.Equal(rec.Answer.Blanks, c.Blanks) {
			verdict = rec.Correct
		}
		for i := range a.blanks {
			a.blanks[i].Mark(verdict)
		}
	}
}

func (a *AttemptScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)

	var b strings.Builder
	b.WriteString(a.renderProgress(cw))
	b.WriteString("\n\n")

	switch {
	case a.confirmLeave:
		b.WriteString(components.Card(a.renderConfirm(
			"Leave this attempt?",
			"Your answers are saved. You can resume it later."), cw))
	case a.confirmFinish:
		b.WriteString(components.Card(a.renderConfirm(
			"Finish and submit this attempt?",
			fmt.Sprintf("%d of %d questions answered.", a.session.Book.Len(), len(a.session.Quiz.Questions))), cw))
	case a.picker:
		b.WriteString(components.Card(a.renderPicker(), cw))
	default:
		b.WriteString(components.Card(a.renderQuestion(cw-8), cw))
	}
	b.WriteString("\n")

	if a.toast != "" {
		style := theme.ToastInfo
		if a.toastError {
			style = theme.ToastError
		}
		b.WriteString(lipgloss.NewStyle().Width(cw).Render(style.Render(a.toast)))
	} else if a.inFlight > 0 {
		b.WriteString(dim.Render("Saving..."))
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, b.String())
}

func (a *AttemptScreen) renderProgress(cw int) string {
	s := a.session
	n := len(s.Quiz.Questions)
	label := fmt.Sprintf("Question %d of %d", s.Nav.Current()+1, n)
	progress := components.ProgressBar{
		Label:   label,
		Caption: fmt.Sprintf("%d answered", s.Book.Len()),
		Percent: float64(s.Book.Len()) / float64(n),
		Width:   cw,
	}
	out := progress.View()

	t := s.Timer
	if t.Enabled() && s.Quiz.TimeLimitSeconds > 0 {
		left := t.Remaining()
		if t.Expired() {
			left = 0
		}
		clock := components.ProgressBar{
			Label:   "Time left",
			Caption: timer.Format(left),
			Percent: float64(left) / float64(s.Quiz.TimeLimitSeconds),
			Warning: t.Warning() || t.Expired(),
			Width:   cw,
		}
		out += "\n" + clock.View()
	}
	return out
}

func (a *AttemptScreen) renderQuestion(width int) string {
	q := a.session.Question()
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)
	body := lipgloss.NewStyle().Foreground(theme.Text).Width(width)

	var b strings.Builder
	header := typeLabels[q.Type]
	if header == "" {
		header = string(q.Type)
	}
	if q.Points > 0 {
		header += fmt.Sprintf(" · %g pts", q.Points)
	}
	b.WriteString(dim.Render(header))
	b.WriteString("\n\n")

	if a.session.Finalizing() {
		b.WriteString(theme.Pending.Render("Submitting your attempt..."))
		return b.String()
	}

	switch q.Type {
	case quiz.MultipleChoice:
		b.WriteString(body.Render(q.Text))
		b.WriteString("\n\n")
		b.WriteString(a.choices.View())
	case quiz.TrueFalse:
		b.WriteString(body.Render(q.Text))
		b.WriteString("\n\n")
		b.WriteString(a.choices.View())
	case quiz.Listening:
		b.WriteString(body.Render(q.Text))
		b.WriteString("\n\n")
		b.WriteString(a.renderListening())
		b.WriteString("\n\n")
		b.WriteString(a.choices.View())
	case quiz.FillInTheBlank:
		b.WriteString(body.Render(numberBlanks(q.Text)))
		b.WriteString("\n\n")
		for i, in := range a.blanks {
			marker := "  "
			if i == a.focus {
				marker = theme.Selected.Render("▸ ")
			}
			b.WriteString(fmt.Sprintf("%s[%d] %s\n", marker, i+1, in.View()))
		}
	case quiz.Pronunciation:
		if q.Text != "" {
			b.WriteString(body.Render(q.Text))
			b.WriteString("\n\n")
		}
		b.WriteString(theme.Title.Width(width).Render(fmt.Sprintf("“%s”", q.PronunciationText)))
		b.WriteString("\n\n")
		b.WriteString(a.renderRecorder())
	default:
		b.WriteString(body.Render(q.Text))
		b.WriteString("\n\n")
		b.WriteString(dim.Render("This question type is not supported here. You can skip it."))
	}
	return b.String()
}

func (a *AttemptScreen) renderListening() string {
	q := a.session.Question()
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)
	switch {
	case a.playing:
		return theme.Pending.Render("♪ Playing...")
	case a.session.Capture.Listened:
		return theme.Correct.Render("♪ Listened") + dim.Render("  (space to replay)")
	}
	limit := ""
	if q.MaxListeningTimeSeconds > 0 {
		limit = fmt.Sprintf(" (up to %s)", timer.Format(q.MaxListeningTimeSeconds))
	}
	return theme.Selected.Render("♪ Press space to listen") + dim.Render(limit)
}

func (a *AttemptScreen) renderRecorder() string {
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)
	if a.micErr != "" {
		return theme.ToastError.Render(a.micErr)
	}
	rec := a.session.Recorder
	if rec == nil {
		return dim.Render("No microphone is configured.")
	}

	var status string
	switch rec.State() {
	case pronunciation.Recording:
		status = theme.Incorrect.Render("● Recording...") + dim.Render("  press r to stop")
	case pronunciation.Processing:
		status = theme.Pending.Render("Uploading your recording...")
	default:
		if a.session.Capture.Recorded {
			status = theme.Correct.Render("✓ Recorded") + dim.Render("  press r to record again")
		} else {
			status = theme.Selected.Render("Press r and read the sentence aloud")
		}
	}

	q := a.session.Question()
	if r := a.session.Book.Get(q.ID); r != nil && r.Correct != nil && a.session.Capture.Recorded {
		verdict := theme.Incorrect.Render("Needs practice")
		if *r.Correct {
			verdict = theme.Correct.Render("Well pronounced")
		}
		if r.ScoreAchieved != nil {
			verdict += dim.Render(fmt.Sprintf("  %g / %g pts", *r.ScoreAchieved, q.Points))
		}
		status += "\n" + verdict
	}
	return status
}

func (a *AttemptScreen) renderPicker() string {
	s := a.session
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)

	var b strings.Builder
	b.WriteString(theme.Selected.Render("Jump to question"))
	b.WriteString("\n\n")
	for i := range s.Quiz.Questions {
		cell := fmt.Sprintf(" %2d ", i+1)
		if s.Answered(i) {
			cell = fmt.Sprintf(" %2d✓", i+1)
		}
		style := lipgloss.NewStyle().Foreground(theme.Text)
		switch {
		case i == a.pickerCursor:
			style = style.Reverse(true).Bold(true)
		case i == s.Nav.Current():
			style = theme.Selected
		case !s.Nav.CanNavigateTo(i):
			style = dim
		}
		b.WriteString(style.Render(cell))
		if (i+1)%8 == 0 {
			b.WriteString("\n")
		} else {
			b.WriteString(" ")
		}
	}
	return b.String()
}

func (a *AttemptScreen) renderConfirm(question, detail string) string {
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)
	return theme.Selected.Render(question) + "\n\n" + dim.Render(detail) + "\n\n" +
		theme.Body.Render("[Y] Yes    [N] No")
}

// numberBlanks labels each blank marker so it can be matched to its input.
func numberBlanks(text string) string {
	var b strings.Builder
	n := 0
	for {
		i := strings.Index(text, quiz.BlankMarker)
		if i < 0 {
			b.WriteString(text)
			return b.String()
		}
		n++
		b.WriteString(text[:i])
		b.WriteString(fmt.Sprintf("[%d]____", n))
		text = text[i+len(quiz.BlankMarker):]
	}
}
