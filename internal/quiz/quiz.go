package quiz

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// NavigationMode is the policy governing which questions a learner may move to.
type NavigationMode string

const (
	NavSequential NavigationMode = "sequential"      // Forward only, one at a time
	NavBackOnly   NavigationMode = "back-only"       // Any visited question, never ahead
	NavFree       NavigationMode = "free-navigation" // Any question
)

// Known reports whether m is one of the recognised navigation modes.
func (m NavigationMode) Known() bool {
	switch m {
	case NavSequential, NavBackOnly, NavFree:
		return true
	}
	return false
}

// QuestionType identifies how a question is answered.
type QuestionType string

const (
	MultipleChoice QuestionType = "MULTIPLE_CHOICE"
	FillInTheBlank QuestionType = "FILL_IN_THE_BLANK"
	Pronunciation  QuestionType = "PRONUNCIATION"
	Listening      QuestionType = "LISTENING"
	TrueFalse      QuestionType = "TRUE_FALSE"
)

// Known reports whether t is one of the recognised question types.
func (t QuestionType) Known() bool {
	switch t {
	case MultipleChoice, FillInTheBlank, Pronunciation, Listening, TrueFalse:
		return true
	}
	return false
}

// BlankMarker is the literal placeholder that marks a blank in question text.
const BlankMarker = "_____"

// Option is one choice of a multiple-choice or listening question.
// IsCorrect is populated by the platform but must not be shown before the
// server confirms an answer.
type Option struct {
	ID        string `json:"id" validate:"required"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect,omitempty"`
}

// Question is a single quiz item.
type Question struct {
	ID                      string       `json:"id" validate:"required"`
	Type                    QuestionType `json:"type" validate:"required"`
	Text                    string       `json:"text"`
	Points                  float64      `json:"points" validate:"gte=0"`
	Options                 []Option     `json:"options,omitempty" validate:"dive"`
	CorrectBlanks           []string     `json:"correctBlanks,omitempty"`
	PronunciationText       string       `json:"pronunciationText,omitempty"`
	AudioURL                string       `json:"audioUrl,omitempty"`
	MaxListeningTimeSeconds int          `json:"maxListeningTimeSeconds,omitempty" validate:"gte=0"`
	ImageURL                string       `json:"imageUrl,omitempty"`
}

// BlankCount returns the number of blank markers in the question text.
func (q Question) BlankCount() int {
	return strings.Count(q.Text, BlankMarker)
}

// HasOption reports whether id names one of the question's options.
func (q Question) HasOption(id string) bool {
	for _, o := range q.Options {
		if o.ID == id {
			return true
		}
	}
	return false
}

// Option returns the option with the given id.
func (q Question) Option(id string) (Option, bool) {
	for _, o := range q.Options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// Quiz is the immutable definition a learner attempts.
type Quiz struct {
	ID                  string         `json:"id" validate:"required"`
	Title               string         `json:"title"`
	Questions           []Question     `json:"questions" validate:"required,min=1,dive"`
	NavigationMode      NavigationMode `json:"navigationMode"`
	HasTimer            bool           `json:"hasTimer"`
	TimeLimitSeconds    int            `json:"timeLimit" validate:"gte=0"`
	WarningTimeSeconds  int            `json:"warningTime" validate:"gte=0"`
	PassingScore        float64        `json:"passingScore" validate:"gte=0,lte=100"`
	MaxAttempts         int            `json:"maxAttempts" validate:"gte=0"`
	AllowQuestionPicker bool           `json:"allowQuestionPicker"`
	AllowPause          bool           `json:"allowPause"`
}

var validate = validator.New()

// ErrInvalidQuiz is returned when a quiz definition cannot be attempted.
var ErrInvalidQuiz = errors.New("invalid quiz")

// Validate checks the structural constraints an attempt relies on.
func (q Quiz) Validate() error {
	if err := validate.Struct(q); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuiz, err)
	}
	seen := make(map[string]bool, len(q.Questions))
	for _, qu := range q.Questions {
		if seen[qu.ID] {
			return fmt.Errorf("%w: duplicate question id %q", ErrInvalidQuiz, qu.ID)
		}
		seen[qu.ID] = true
	}
	if q.HasTimer && q.WarningTimeSeconds > q.TimeLimitSeconds {
		return fmt.Errorf("%w: warning time %ds exceeds limit %ds", ErrInvalidQuiz, q.WarningTimeSeconds, q.TimeLimitSeconds)
	}
	return nil
}

// QuestionIndex returns the position of the question with the given id, or -1.
func (q Quiz) QuestionIndex(id string) int {
	for i, qu := range q.Questions {
		if qu.ID == id {
			return i
		}
	}
	return -1
}

// MaxScore is the sum of question points.
func (q Quiz) MaxScore() float64 {
	var total float64
	for _, qu := range q.Questions {
		total += qu.Points
	}
	return total
}

// HasType reports whether any question is of type t.
func (q Quiz) HasType(t QuestionType) bool {
	for _, qu := range q.Questions {
		if qu.Type == t {
			return true
		}
	}
	return false
}
