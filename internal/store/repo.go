package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// EventKind names a journal entry type.
type EventKind string

const (
	KindAnswer     EventKind = "answer"
	KindAttempt    EventKind = "attempt"
	KindPractice   EventKind = "practice"
	KindLLMRequest EventKind = "llm_request"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Kinds     []EventKind // empty = all kinds
	AttemptID string      // empty = any attempt
	Limit     int         // max results (0 = unlimited)
	After     int64       // sequence > After
}

// Event is one journal row.
type Event struct {
	Sequence   int64
	Kind       EventKind
	AttemptID  string
	QuizID     string
	QuestionID string
	Score      *float64
	Success    bool
	Payload    json.RawMessage
	CreatedAt  time.Time
}

// AnswerEventData records a reconciled answer submission.
type AnswerEventData struct {
	AttemptID    string   `json:"attempt_id"`
	QuestionID   string   `json:"question_id"`
	QuestionType string   `json:"question_type"`
	Status       string   `json:"status"`
	Correct      *bool    `json:"correct,omitempty"`
	Score        *float64 `json:"score,omitempty"`
	TimeSpentMs  int64    `json:"time_spent_ms"`
	Error        string   `json:"error,omitempty"`
}

// AttemptEventData records an attempt lifecycle step.
type AttemptEventData struct {
	AttemptID string   `json:"attempt_id"`
	QuizID    string   `json:"quiz_id"`
	QuizTitle string   `json:"quiz_title,omitempty"`
	Action    string   `json:"action"` // started, resumed, completed, expired, finalize_failed
	Score     *float64 `json:"score,omitempty"`
	Percent   *float64 `json:"percent,omitempty"`
	Passed    *bool    `json:"passed,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// PracticeEventData records a scored pronunciation practice.
type PracticeEventData struct {
	SampleID   string  `json:"sample_id"`
	Text       string  `json:"text"`
	Level      string  `json:"level,omitempty"`
	Custom     bool    `json:"custom,omitempty"`
	Accuracy   float64 `json:"accuracy"`
	RealIPA    string  `json:"real_ipa,omitempty"`
	MatchedIPA string  `json:"matched_ipa,omitempty"`
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	Purpose      string `json:"purpose"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	LatencyMs    int64  `json:"latency_ms"`
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
	RequestBody  string `json:"request_body,omitempty"`
	ResponseBody string `json:"response_body,omitempty"`
}

// PracticeSummary aggregates all scored practice attempts.
type PracticeSummary struct {
	Count   int
	Average float64
}

// EventRepo provides append and query access to the journal.
type EventRepo interface {
	AppendAnswer(ctx context.Context, data AnswerEventData) error
	AppendAttempt(ctx context.Context, data AttemptEventData) error
	AppendPractice(ctx context.Context, data PracticeEventData) error
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// Query returns events newest first.
	Query(ctx context.Context, opts QueryOpts) ([]Event, error)

	PracticeSummary(ctx context.Context) (PracticeSummary, error)
}

// ErrNoTokens is returned when no session is stored.
var ErrNoTokens = errors.New("not signed in")

// Tokens is the stored session.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	Email        string
	UpdatedAt    time.Time
}

// TokenRepo persists the single signed-in session.
type TokenRepo interface {
	Save(ctx context.Context, t Tokens) error
	Load(ctx context.Context) (*Tokens, error)
	Clear(ctx context.Context) error
}
