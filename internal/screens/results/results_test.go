package results

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/lingoquiz/internal/quiz"
)

type stubFetcher struct {
	attempt *quiz.Attempt
	err     error
	calls   int
}

func (f *stubFetcher) Attempt(_ context.Context, _ string) (*quiz.Attempt, error) {
	f.calls++
	return f.attempt, f.err
}

func testQuiz() quiz.Quiz {
	return quiz.Quiz{
		ID:           "q1",
		Title:        "Everyday verbs",
		PassingScore: 60,
		Questions: []quiz.Question{
			{ID: "a", Type: quiz.TrueFalse, Text: "Cats bark.", Points: 10},
			{ID: "b", Type: quiz.TrueFalse, Text: "Fish swim.", Points: 10},
		},
	}
}

func TestPassedUsesPercentOfMaxScore(t *testing.T) {
	s := New(context.Background(), testQuiz(), quiz.Attempt{ID: "att", Score: 10}, nil)
	assert.InDelta(t, 50, s.Percent(), 0.001)
	assert.False(t, s.Passed())

	s = New(context.Background(), testQuiz(), quiz.Attempt{ID: "att", Score: 12}, nil)
	assert.True(t, s.Passed())
}

func TestInitLoadsMissingAnswers(t *testing.T) {
	f := &stubFetcher{attempt: &quiz.Attempt{ID: "att", Answers: []quiz.AnswerRecord{
		{QuestionID: "a", Correct: quiz.Bool(false)},
		{QuestionID: "b", Correct: quiz.Bool(true)},
	}}}
	s := New(context.Background(), testQuiz(), quiz.Attempt{ID: "att", Score: 10, CorrectAnswers: 1}, f)

	cmd := s.Init()
	require.NotNil(t, cmd)
	s.Update(cmd())

	assert.Equal(t, 1, f.calls)
	assert.Len(t, s.attempt.Answers, 2)
	assert.Equal(t, 10.0, s.attempt.Score)

	view := s.View(100, 40)
	assert.Contains(t, view, "✗")
	assert.Contains(t, view, "✓")
}

func TestInitSkipsFetchWhenAnswersPresent(t *testing.T) {
	f := &stubFetcher{}
	a := quiz.Attempt{ID: "att", Answers: []quiz.AnswerRecord{{QuestionID: "a"}}}
	s := New(context.Background(), testQuiz(), a, f)
	assert.Nil(t, s.Init())
}

func TestLoadFailureIsShown(t *testing.T) {
	f := &stubFetcher{err: errors.New("boom")}
	s := New(context.Background(), testQuiz(), quiz.Attempt{ID: "att"}, f)
	s.Update(s.Init()())
	assert.True(t, strings.Contains(s.View(100, 40), "Couldn't load your answers"))
}

func TestEnterQuits(t *testing.T) {
	s := New(context.Background(), testQuiz(), quiz.Attempt{ID: "att"}, nil)
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}
