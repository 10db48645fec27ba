// Package submission turns captured answers into platform submissions and
// keeps the optimistic local answer state in step with server verdicts.
package submission

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/go-playground/validator/v10"

	"github.com/abhisek/lingoquiz/internal/api"
	"github.com/abhisek/lingoquiz/internal/quiz"
)

var (
	// ErrIncompleteAnswer means the value lacks the field its type requires.
	ErrIncompleteAnswer = errors.New("incomplete answer")

	// ErrBlankCountMismatch means the blanks do not match the question's markers.
	ErrBlankCountMismatch = errors.New("blank count mismatch")

	// ErrUnresolvedAudio means a pronunciation answer was submitted before
	// its recording was uploaded.
	ErrUnresolvedAudio = errors.New("pronunciation answer has no uploaded audio url")

	// ErrUnsupportedType means the question type has no wire form.
	ErrUnsupportedType = errors.New("unsupported question type")
)

var validate = validator.New()

// Build serializes a captured answer into the submission payload.
func Build(q quiz.Question, v quiz.AnswerValue, elapsedMs int64) (api.SubmitQuestionRequest, error) {
	p := api.SubmitQuestionRequest{QuestionID: q.ID, TimeTaken: max(elapsedMs, 0)}

	switch q.Type {
	case quiz.MultipleChoice, quiz.Listening:
		if v.OptionID == "" {
			return p, fmt.Errorf("%s %s: %w", q.Type, q.ID, ErrIncompleteAnswer)
		}
		sel := []string{v.OptionID}
		p.SelectedOptions = &sel
	case quiz.FillInTheBlank:
		if len(v.Blanks) != q.BlankCount() {
			return p, fmt.Errorf("question %s has %d blanks, got %d: %w", q.ID, q.BlankCount(), len(v.Blanks), ErrBlankCountMismatch)
		}
		blanks := append([]string{}, v.Blanks...)
		p.FillInBlanksAnswers = &blanks
	case quiz.Pronunciation:
		if !resolvedURL(v.AudioURL) {
			return p, fmt.Errorf("question %s: %w", q.ID, ErrUnresolvedAudio)
		}
		u := v.AudioURL
		p.AudioURL = &u
	case quiz.TrueFalse:
		if v.TrueFalse == nil {
			return p, fmt.Errorf("%s %s: %w", q.Type, q.ID, ErrIncompleteAnswer)
		}
		b := *v.TrueFalse
		p.UserAnswerTrueFalse = &b
	default:
		return p, fmt.Errorf("%q: %w", q.Type, ErrUnsupportedType)
	}

	if err := validate.Struct(p); err != nil {
		return p, fmt.Errorf("submission payload: %w", err)
	}
	return p, nil
}

func resolvedURL(s string) bool {
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
