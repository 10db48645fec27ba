package submission

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/abhisek/lingoquiz/internal/api"
	"github.com/abhisek/lingoquiz/internal/quiz"
)

// mockSubmitter returns canned results in FIFO order.
type mockSubmitter struct {
	responses []*api.SubmitQuestionResponse
	errs      []error
	calls     []api.SubmitQuestionRequest
}

func (m *mockSubmitter) SubmitQuestion(_ context.Context, _ string, req api.SubmitQuestionRequest) (*api.SubmitQuestionResponse, error) {
	m.calls = append(m.calls, req)
	var resp *api.SubmitQuestionResponse
	var err error
	if len(m.responses) > 0 {
		resp, m.responses = m.responses[0], m.responses[1:]
	}
	if len(m.errs) > 0 {
		err, m.errs = m.errs[0], m.errs[1:]
	}
	return resp, err
}

type recordingJournal struct {
	entries []quiz.AnswerRecord
}

func (j *recordingJournal) RecordAnswer(_ context.Context, _ string, rec quiz.AnswerRecord, _ error) {
	j.entries = append(j.entries, rec)
}

var testQuiz = quiz.Quiz{
	ID: "qz",
	Questions: []quiz.Question{
		{ID: "q1", Type: quiz.MultipleChoice, Points: 1, Options: []quiz.Option{{ID: "a"}, {ID: "b"}}},
		{ID: "q2", Type: quiz.Pronunciation, Points: 1},
	},
}

func fixedNow() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }

func newTestPipeline(sub Submitter, j Journal) *Pipeline {
	return NewPipeline(NewBook(testQuiz), sub, Options{Journal: j, Now: fixedNow})
}

func TestBeginWritesOptimisticRecord(t *testing.T) {
	p := newTestPipeline(&mockSubmitter{}, nil)
	pend, err := p.Begin("att", testQuiz.Questions[0], quiz.AnswerValue{Kind: quiz.MultipleChoice, OptionID: "a"}, 900)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	rec := p.Book().Get("q1")
	if rec == nil {
		t.Fatal("no record after Begin")
	}
	if rec.Status != quiz.StatusPending {
		t.Errorf("Status = %q, want pending", rec.Status)
	}
	if rec.Correct != nil {
		t.Errorf("Correct = %v, want nil", *rec.Correct)
	}
	if rec.TimeSpentMillis != 900 {
		t.Errorf("TimeSpentMillis = %d, want 900", rec.TimeSpentMillis)
	}
	if pend.Seq != 1 {
		t.Errorf("Seq = %d, want 1", pend.Seq)
	}
}

func TestBeginInvalidLeavesBookUntouched(t *testing.T) {
	p := newTestPipeline(&mockSubmitter{}, nil)
	_, err := p.Begin("att", testQuiz.Questions[1], quiz.AnswerValue{Kind: quiz.Pronunciation, AudioURL: "blob:x"}, 0)
	if !errors.Is(err, ErrUnresolvedAudio) {
		t.Fatalf("Begin err = %v, want ErrUnresolvedAudio", err)
	}
	if p.Book().Answered("q2") {
		t.Error("rejected answer was written to the book")
	}
}

func TestReconcileSuccess(t *testing.T) {
	sub := &mockSubmitter{responses: []*api.SubmitQuestionResponse{{QuestionID: "q1", IsCorrect: quiz.Bool(true), ScoreAchieved: quiz.Float(1)}}}
	j := &recordingJournal{}
	p := newTestPipeline(sub, j)

	pend, _ := p.Begin("att", testQuiz.Questions[0], quiz.AnswerValue{Kind: quiz.MultipleChoice, OptionID: "a"}, 10)
	res := p.Reconcile(p.Send(context.Background(), pend))
	if res.Err != nil || res.Stale {
		t.Fatalf("Reconcile = %+v", res)
	}
	rec := p.Book().Get("q1")
	if rec.Status != quiz.StatusConfirmed || rec.Correct == nil || !*rec.Correct || *rec.ScoreAchieved != 1 {
		t.Errorf("record = %+v, want confirmed correct score 1", rec)
	}
	if len(sub.calls) != 1 {
		t.Errorf("calls = %d, want 1", len(sub.calls))
	}
	if len(j.entries) != 1 {
		t.Errorf("journal entries = %d, want 1", len(j.entries))
	}
}

func TestReconcileFailureEnvelopeKeepsAnswer(t *testing.T) {
	sub := &mockSubmitter{errs: []error{&api.ErrAPI{Op: "submit question", Code: 500, Message: "boom"}}}
	p := newTestPipeline(sub, nil)

	pend, _ := p.Begin("att", testQuiz.Questions[0], quiz.AnswerValue{Kind: quiz.MultipleChoice, OptionID: "b"}, 10)
	res := p.Reconcile(p.Send(context.Background(), pend))
	if !api.IsAPI(res.Err) {
		t.Fatalf("Err = %v, want api error", res.Err)
	}
	rec := p.Book().Get("q1")
	if rec == nil || rec.Answer.OptionID != "b" {
		t.Fatalf("optimistic answer lost: %+v", rec)
	}
	if rec.Correct != nil || rec.ScoreAchieved != nil {
		t.Errorf("Correct/ScoreAchieved set after failure: %+v", rec)
	}
	if rec.Status != quiz.StatusFailed {
		t.Errorf("Status = %q, want failed", rec.Status)
	}
	if len(sub.calls) != 1 {
		t.Errorf("calls = %d, want 1 (no retry)", len(sub.calls))
	}
}

func TestReconcileTransportFailureIsDistinct(t *testing.T) {
	sub := &mockSubmitter{errs: []error{&api.ErrTransport{Op: "submit question", Err: errors.New("connection refused")}}}
	p := newTestPipeline(sub, nil)

	pend, _ := p.Begin("att", testQuiz.Questions[0], quiz.AnswerValue{Kind: quiz.MultipleChoice, OptionID: "a"}, 10)
	res := p.Reconcile(p.Send(context.Background(), pend))
	if !api.IsTransport(res.Err) || api.IsAPI(res.Err) {
		t.Errorf("Err = %v, want transport error only", res.Err)
	}
}

func TestReconcileDiscardsStale(t *testing.T) {
	sub := &mockSubmitter{responses: []*api.SubmitQuestionResponse{
		{IsCorrect: quiz.Bool(false), ScoreAchieved: quiz.Float(0)},
		{IsCorrect: quiz.Bool(true), ScoreAchieved: quiz.Float(1)},
	}}
	p := newTestPipeline(sub, nil)
	q := testQuiz.Questions[0]

	first, _ := p.Begin("att", q, quiz.AnswerValue{Kind: q.Type, OptionID: "b"}, 10)
	second, _ := p.Begin("att", q, quiz.AnswerValue{Kind: q.Type, OptionID: "a"}, 10)
	o1 := p.Send(context.Background(), first)
	o2 := p.Send(context.Background(), second)

	// Newer response lands first.
	p.Reconcile(o2)
	res := p.Reconcile(o1)
	if !res.Stale {
		t.Error("older outcome was not marked stale")
	}
	rec := p.Book().Get("q1")
	if rec.Answer.OptionID != "a" {
		t.Errorf("OptionID = %q, want a", rec.Answer.OptionID)
	}
	if rec.Correct == nil || !*rec.Correct {
		t.Errorf("Correct = %v, want true", rec.Correct)
	}
}

func TestReconcileNormalisesAudioURL(t *testing.T) {
	sub := &mockSubmitter{responses: []*api.SubmitQuestionResponse{{IsCorrect: quiz.Bool(true), AudioURL: "https://cdn.example.com/final.wav"}}}
	p := newTestPipeline(sub, nil)
	q := testQuiz.Questions[1]

	pend, err := p.Begin("att", q, quiz.AnswerValue{Kind: q.Type, AudioURL: "https://upload.example.com/tmp.wav"}, 10)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	p.Reconcile(p.Send(context.Background(), pend))
	if got := p.Book().Get("q2").Answer.AudioURL; got != "https://cdn.example.com/final.wav" {
		t.Errorf("AudioURL = %q, want normalised url", got)
	}
}

func TestBookSeedAndOrder(t *testing.T) {
	b := NewBook(testQuiz)
	b.Seed([]quiz.AnswerRecord{
		{QuestionID: "q2", QuestionType: quiz.Pronunciation, Answer: quiz.AnswerValue{AudioURL: "https://x/y.wav"}},
		{QuestionID: "q1", QuestionType: quiz.MultipleChoice, Answer: quiz.AnswerValue{OptionID: "a"}},
	})
	all := b.All()
	if len(all) != 2 || all[0].QuestionID != "q1" || all[1].QuestionID != "q2" {
		t.Errorf("All() order = %v", all)
	}
	if all[0].Status != quiz.StatusConfirmed {
		t.Errorf("seeded Status = %q, want confirmed", all[0].Status)
	}
}
