// Package journal writes attempt, answer and practice outcomes to the local
// event store. Writes never fail the caller; errors are logged.
package journal

import (
	"context"
	"log/slog"

	"github.com/abhisek/lingoquiz/internal/pronunciation"
	"github.com/abhisek/lingoquiz/internal/quiz"
	"github.com/abhisek/lingoquiz/internal/store"
)

// Actions recorded when an attempt is opened. The session records the rest.
const (
	ActionStarted = "started"
	ActionResumed = "resumed"
)

// Journal adapts a store.EventRepo to the recorders used by the attempt and
// practice sessions.
type Journal struct {
	repo   store.EventRepo
	logger *slog.Logger
}

func New(repo store.EventRepo, logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Journal{repo: repo, logger: logger}
}

// RecordAnswer journals one reconciled submission.
func (j *Journal) RecordAnswer(ctx context.Context, attemptID string, rec quiz.AnswerRecord, err error) {
	data := store.AnswerEventData{
		AttemptID:    attemptID,
		QuestionID:   rec.QuestionID,
		QuestionType: string(rec.QuestionType),
		Status:       string(rec.Status),
		Correct:      rec.Correct,
		Score:        rec.ScoreAchieved,
		TimeSpentMs:  rec.TimeSpentMillis,
	}
	if err != nil {
		data.Error = err.Error()
	}
	j.check(j.repo.AppendAnswer(ctx, data), "answer", "attempt_id", attemptID, "question_id", rec.QuestionID)
}

// RecordAttempt journals an attempt lifecycle step. a may be nil when the
// step has no server result.
func (j *Journal) RecordAttempt(ctx context.Context, q quiz.Quiz, attemptID, action string, a *quiz.Attempt, err error) {
	data := store.AttemptEventData{
		AttemptID: attemptID,
		QuizID:    q.ID,
		QuizTitle: q.Title,
		Action:    action,
	}
	if a != nil && a.Completed() {
		pct := quiz.ResultPercent(a.Score, q.MaxScore())
		data.Score = quiz.Float(a.Score)
		data.Percent = quiz.Float(pct)
		data.Passed = quiz.Bool(a.Passed)
	}
	if err != nil {
		data.Error = err.Error()
	}
	j.check(j.repo.AppendAttempt(ctx, data), "attempt", "attempt_id", attemptID, "action", action)
}

// RecordPractice journals a scored pronunciation practice.
func (j *Journal) RecordPractice(ctx context.Context, s pronunciation.Sample, score pronunciation.Score) {
	err := j.repo.AppendPractice(ctx, store.PracticeEventData{
		SampleID:   s.ID,
		Text:       s.Text,
		Level:      s.Level,
		Custom:     s.Custom,
		Accuracy:   score.Accuracy,
		RealIPA:    score.RealIPA,
		MatchedIPA: score.MatchedIPA,
	})
	j.check(err, "practice", "sample_id", s.ID)
}

func (j *Journal) check(err error, kind string, attrs ...any) {
	if err == nil {
		return
	}
	j.logger.Warn("journal write failed", append([]any{"kind", kind, "error", err}, attrs...)...)
}
