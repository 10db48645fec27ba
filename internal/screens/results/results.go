// Package results shows a completed attempt.
package results

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/lingoquiz/internal/api"
	"github.com/abhisek/lingoquiz/internal/quiz"
	"github.com/abhisek/lingoquiz/internal/screen"
	"github.com/abhisek/lingoquiz/internal/timer"
	"github.com/abhisek/lingoquiz/internal/ui/components"
	"github.com/abhisek/lingoquiz/internal/ui/layout"
	"github.com/abhisek/lingoquiz/internal/ui/theme"
)

// Fetcher loads the full attempt, answers included.
type Fetcher interface {
	Attempt(ctx context.Context, attemptID string) (*quiz.Attempt, error)
}

type loadedMsg struct {
	attempt *quiz.Attempt
	err     error
}

// ResultsScreen implements screen.Screen for a finished attempt.
type ResultsScreen struct {
	ctx     context.Context
	quiz    quiz.Quiz
	attempt quiz.Attempt
	fetch   Fetcher

	loading bool
	errMsg  string
}

var _ screen.Screen = (*ResultsScreen)(nil)
var _ screen.KeyHintProvider = (*ResultsScreen)(nil)

// New creates a results screen. When the completion response carries no
// answers and fetch is non-nil, they are loaded on Init.
func New(ctx context.Context, q quiz.Quiz, a quiz.Attempt, fetch Fetcher) *ResultsScreen {
	return &ResultsScreen{ctx: ctx, quiz: q, attempt: a, fetch: fetch}
}

func (s *ResultsScreen) Init() tea.Cmd {
	if s.fetch == nil || len(s.attempt.Answers) > 0 || s.attempt.ID == "" {
		return nil
	}
	s.loading = true
	id := s.attempt.ID
	return func() tea.Msg {
		a, err := s.fetch.Attempt(s.ctx, id)
		return loadedMsg{attempt: a, err: err}
	}
}

func (s *ResultsScreen) Title() string { return "Results" }

func (s *ResultsScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{{Key: "Enter", Description: "Done"}}
}

func (s *ResultsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		s.loading = false
		if msg.err != nil {
			s.errMsg = "Couldn't load your answers: " + api.UserMessage(msg.err)
			return s, nil
		}
		if msg.attempt != nil {
			// Only the answers; the completion response holds the score.
			s.attempt.Answers = msg.attempt.Answers
		}
		return s, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "q":
			return s, tea.Quit
		}
	}
	return s, nil
}

// Percent is the attempt score as a percentage of the quiz total.
func (s *ResultsScreen) Percent() float64 {
	return quiz.ResultPercent(s.attempt.Score, s.quiz.MaxScore())
}

// Passed reports whether the attempt reached the passing score.
func (s *ResultsScreen) Passed() bool {
	return quiz.Passed(s.attempt.Score, s.quiz.MaxScore(), s.quiz.PassingScore)
}

func (s *ResultsScreen) View(width, height int) string {
	cw := components.ContentWidth(width)

	var b strings.Builder
	b.WriteString(theme.Title.Width(cw).Render(s.quiz.Title))
	b.WriteString("\n\n")

	verdict := theme.Incorrect.Render(fmt.Sprintf("Not passed (needs %.0f%%)", s.quiz.PassingScore))
	if s.Passed() {
		verdict = theme.Correct.Render("Passed!")
	}
	b.WriteString(components.Centered(verdict, cw))
	b.WriteString("\n\n")

	bar := components.ProgressBar{
		Label:   "Score",
		Caption: fmt.Sprintf("%.0f%%", s.Percent()),
		Percent: s.Percent() / 100,
		Width:   cw,
	}
	b.WriteString(bar.View())
	b.WriteString("\n\n")

	dim := lipgloss.NewStyle().Foreground(theme.TextDim)
	if maxScore := s.quiz.MaxScore(); maxScore > 0 {
		b.WriteString(fmt.Sprintf("Points:   %s / %s\n", formatPoints(s.attempt.Score), formatPoints(maxScore)))
	}
	b.WriteString(fmt.Sprintf("Correct:  %d / %d\n", s.attempt.CorrectAnswers, len(s.quiz.Questions)))
	if s.attempt.TimeSpentSeconds > 0 {
		b.WriteString(fmt.Sprintf("Time:     %s\n", timer.Format(s.attempt.TimeSpentSeconds)))
	}
	b.WriteString("\n")

	switch {
	case s.loading:
		b.WriteString(dim.Render("Loading your answers..."))
	case s.errMsg != "":
		b.WriteString(theme.ToastError.Render(s.errMsg))
	default:
		b.WriteString(s.renderBreakdown(cw))
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, components.Card(b.String(), cw))
}

func (s *ResultsScreen) renderBreakdown(cw int) string {
	byID := make(map[string]quiz.AnswerRecord, len(s.attempt.Answers))
	for _, a := range s.attempt.Answers {
		byID[a.QuestionID] = a
	}
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)

	var lines []string
	for i, q := range s.quiz.Questions {
		mark := dim.Render("–")
		if rec, ok := byID[q.ID]; ok && rec.Correct != nil {
			if *rec.Correct {
				mark = theme.Correct.Render("✓")
			} else {
				mark = theme.Incorrect.Render("✗")
			}
		}
		text := q.Text
		if q.Type == quiz.Pronunciation && q.PronunciationText != "" {
			text = q.PronunciationText
		}
		line := fmt.Sprintf("%s %2d. %s", mark, i+1, text)
		lines = append(lines, lipgloss.NewStyle().MaxWidth(cw-6).Render(line))
	}
	return strings.Join(lines, "\n")
}

func formatPoints(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}
