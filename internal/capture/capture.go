// Package capture holds the transient answer state for the question on screen.
package capture

import (
	"strings"
	"time"

	"github.com/abhisek/lingoquiz/internal/audio"
	"github.com/abhisek/lingoquiz/internal/quiz"
)

// State is the per-question capture state. Only the fields for the current
// question's type are meaningful.
type State struct {
	// SelectedOptionID is the chosen option for multiple-choice and listening.
	SelectedOptionID string

	// Blanks holds one entry per blank marker in the question text.
	Blanks []string

	// Recorded is true once a pronunciation answer has been produced for
	// this question, either now or in a prior visit.
	Recorded bool

	// AudioURL is the uploaded recording location, once known.
	AudioURL string

	// LocalClip is the recording made during this visit, if any.
	LocalClip *audio.Clip

	// Listened is true once listening audio has been played.
	Listened bool

	// TrueFalse is the chosen value for true/false questions.
	TrueFalse *bool

	// QuestionStart is when the learner started spending time on this question.
	QuestionStart time.Time
}

// Reset clears all answer fields and sizes the blanks for q.
func (s *State) Reset(q quiz.Question, now time.Time) {
	*s = State{QuestionStart: now}
	if n := q.BlankCount(); n > 0 {
		s.Blanks = make([]string, n)
	}
}

// Rehydrate resets the state and repopulates it from a stored answer.
// A nil record, or one for a different question type, leaves the state
// blank. Calling Rehydrate twice with the same arguments yields the same
// state.
func (s *State) Rehydrate(q quiz.Question, rec *quiz.AnswerRecord, now time.Time) {
	s.Reset(q, now)
	if rec == nil || rec.QuestionType != q.Type {
		return
	}
	a := rec.Answer
	switch q.Type {
	case quiz.MultipleChoice:
		if q.HasOption(a.OptionID) {
			s.SelectedOptionID = a.OptionID
		}
	case quiz.FillInTheBlank:
		for i := range s.Blanks {
			if i < len(a.Blanks) {
				s.Blanks[i] = a.Blanks[i]
			}
		}
	case quiz.Pronunciation:
		s.AudioURL = a.AudioURL
		s.Recorded = a.AudioURL != ""
	case quiz.Listening:
		if q.HasOption(a.OptionID) {
			s.SelectedOptionID = a.OptionID
		}
		s.Listened = a.Listened || a.OptionID != ""
	case quiz.TrueFalse:
		if a.TrueFalse != nil {
			v := *a.TrueFalse
			s.TrueFalse = &v
		}
	}
}

// CanProceed reports whether the state holds a complete answer for q.
// Unknown question types never block progress.
func (s *State) CanProceed(q quiz.Question) bool {
	switch q.Type {
	case quiz.MultipleChoice:
		return s.SelectedOptionID != ""
	case quiz.FillInTheBlank:
		if len(s.Blanks) != q.BlankCount() {
			return false
		}
		for _, b := range s.Blanks {
			if strings.TrimSpace(b) == "" {
				return false
			}
		}
		return true
	case quiz.Pronunciation:
		return s.Recorded
	case quiz.Listening:
		return s.SelectedOptionID != "" && s.Listened
	case quiz.TrueFalse:
		return s.TrueFalse != nil
	default:
		return true
	}
}

// Value returns the answer held in the state for q. Blanks are trimmed.
func (s *State) Value(q quiz.Question) quiz.AnswerValue {
	v := quiz.AnswerValue{Kind: q.Type}
	switch q.Type {
	case quiz.MultipleChoice:
		v.OptionID = s.SelectedOptionID
	case quiz.FillInTheBlank:
		v.Blanks = make([]string, len(s.Blanks))
		for i, b := range s.Blanks {
			v.Blanks[i] = strings.TrimSpace(b)
		}
	case quiz.Pronunciation:
		v.AudioURL = s.AudioURL
	case quiz.Listening:
		v.OptionID = s.SelectedOptionID
		v.Listened = s.Listened
	case quiz.TrueFalse:
		if s.TrueFalse != nil {
			b := *s.TrueFalse
			v.TrueFalse = &b
		}
	}
	return v
}

// SetBlank updates blank i. Out-of-range indexes are ignored.
func (s *State) SetBlank(i int, text string) bool {
	if i < 0 || i >= len(s.Blanks) {
		return false
	}
	s.Blanks[i] = text
	return true
}

// Elapsed returns the milliseconds spent on the question since QuestionStart.
func (s *State) Elapsed(now time.Time) int64 {
	if s.QuestionStart.IsZero() || now.Before(s.QuestionStart) {
		return 0
	}
	return now.Sub(s.QuestionStart).Milliseconds()
}

// Restart resets the question-start timestamp after a submission.
func (s *State) Restart(now time.Time) {
	s.QuestionStart = now
}
