package journal

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/lingoquiz/internal/pronunciation"
	"github.com/abhisek/lingoquiz/internal/quiz"
	"github.com/abhisek/lingoquiz/internal/store"
)

func openRepo(t *testing.T) store.EventRepo {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s.EventRepo()
}

func TestRecordAnswerAndAttempt(t *testing.T) {
	repo := openRepo(t)
	j := New(repo, nil)
	ctx := context.Background()

	q := quiz.Quiz{ID: "qz", Title: "Greetings", Questions: []quiz.Question{{ID: "q1", Points: 10}, {ID: "q2", Points: 10}}}

	j.RecordAnswer(ctx, "a1", quiz.AnswerRecord{
		QuestionID:      "q1",
		QuestionType:    quiz.MultipleChoice,
		Status:          quiz.StatusFailed,
		TimeSpentMillis: 1200,
	}, errors.New("connection reset"))

	done := time.Now()
	j.RecordAttempt(ctx, q, "a1", "completed", &quiz.Attempt{ID: "a1", Score: 15, Passed: true, CompletedAt: &done}, nil)

	events, err := repo.Query(ctx, store.QueryOpts{AttemptID: "a1"})
	require.NoError(t, err)
	require.Len(t, events, 2)

	var att store.AttemptEventData
	require.NoError(t, json.Unmarshal(events[0].Payload, &att))
	assert.Equal(t, "completed", att.Action)
	require.NotNil(t, att.Percent)
	assert.InDelta(t, 75, *att.Percent, 0.001)

	var ans store.AnswerEventData
	require.NoError(t, json.Unmarshal(events[1].Payload, &ans))
	assert.Equal(t, "failed", ans.Status)
	assert.Equal(t, "connection reset", ans.Error)
	assert.Nil(t, ans.Correct)
}

func TestRecordPractice(t *testing.T) {
	repo := openRepo(t)
	j := New(repo, nil)
	ctx := context.Background()

	j.RecordPractice(ctx, pronunciation.Sample{ID: "s1", Text: "go now"}, pronunciation.Score{Accuracy: 64})
	j.RecordPractice(ctx, pronunciation.Sample{ID: "s2", Text: "see you"}, pronunciation.Score{Accuracy: 86})

	sum, err := repo.PracticeSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Count)
	assert.InDelta(t, 75, sum.Average, 0.001)
}

type failingRepo struct{ store.EventRepo }

func (failingRepo) AppendAnswer(context.Context, store.AnswerEventData) error {
	return errors.New("database is locked")
}

func TestWriteFailureDoesNotPanic(t *testing.T) {
	j := New(failingRepo{}, nil)
	j.RecordAnswer(context.Background(), "a", quiz.AnswerRecord{QuestionID: "q"}, nil)
}
