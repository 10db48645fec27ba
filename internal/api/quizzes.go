package api

import (
	"context"
	"net/url"

	"github.com/abhisek/lingoquiz/internal/quiz"
)

// SubmitQuestionRequest is the wire form of one answer. Exactly one answer
// field is non-nil.
type SubmitQuestionRequest struct {
	QuestionID          string    `json:"questionId" validate:"required"`
	SelectedOptions     *[]string `json:"selectedOptions"`
	FillInBlanksAnswers *[]string `json:"fillInBlanksAnswers"`
	AudioURL            *string   `json:"audioUrl"`
	UserAnswerTrueFalse *bool     `json:"userAnswerTrueFalse"`
	TimeTaken           int64     `json:"timeTaken" validate:"gte=0"`
}

// SubmitQuestionResponse carries the server's verdict for one answer.
type SubmitQuestionResponse struct {
	QuestionID    string   `json:"questionId"`
	IsCorrect     *bool    `json:"isCorrect"`
	ScoreAchieved *float64 `json:"scoreAchieved"`
	AudioURL      string   `json:"audioUrl,omitempty"`
}

// Quiz fetches a quiz and its ordered questions.
func (c *Client) Quiz(ctx context.Context, id string) (*quiz.Quiz, error) {
	var q quiz.Quiz
	if err := c.get(ctx, "get quiz", "/quizzes/"+url.PathEscape(id), nil, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// StartAttempt opens a new attempt on a quiz.
func (c *Client) StartAttempt(ctx context.Context, quizID string) (*quiz.Attempt, error) {
	var a quiz.Attempt
	if err := c.postJSON(ctx, "start attempt", "/quizzes/"+url.PathEscape(quizID)+"/attempts", nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Attempt fetches an attempt including prior answers.
func (c *Client) Attempt(ctx context.Context, id string) (*quiz.Attempt, error) {
	var a quiz.Attempt
	if err := c.get(ctx, "get attempt", "/attempts/"+url.PathEscape(id), nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// MyAttempts lists the signed-in learner's attempts on a quiz.
func (c *Client) MyAttempts(ctx context.Context, quizID string) ([]quiz.Attempt, error) {
	var out []quiz.Attempt
	if err := c.get(ctx, "list attempts", "/quizzes/"+url.PathEscape(quizID)+"/attempts/me", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SubmitQuestion records one answer. It is never retried.
func (c *Client) SubmitQuestion(ctx context.Context, attemptID string, req SubmitQuestionRequest) (*SubmitQuestionResponse, error) {
	var out SubmitQuestionResponse
	if err := c.postJSON(ctx, "submit question", "/attempts/"+url.PathEscape(attemptID)+"/submit-question", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CompleteAttempt seals the attempt and returns the final summary.
func (c *Client) CompleteAttempt(ctx context.Context, attemptID string) (*quiz.Attempt, error) {
	var a quiz.Attempt
	if err := c.postJSON(ctx, "complete attempt", "/attempts/"+url.PathEscape(attemptID)+"/complete", nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
