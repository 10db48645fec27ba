package attempt

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/abhisek/lingoquiz/internal/api"
	"github.com/abhisek/lingoquiz/internal/audio"
	"github.com/abhisek/lingoquiz/internal/navigation"
	"github.com/abhisek/lingoquiz/internal/pronunciation"
	"github.com/abhisek/lingoquiz/internal/quiz"
	"github.com/abhisek/lingoquiz/internal/submission"
	"github.com/abhisek/lingoquiz/internal/timer"
)

type fakeBackend struct {
	mu        sync.Mutex
	submits   []api.SubmitQuestionRequest
	completes int
	submitErr error
	finalErr  error
	correct   bool
}

func (b *fakeBackend) SubmitQuestion(_ context.Context, _ string, req api.SubmitQuestionRequest) (*api.SubmitQuestionResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.submits = append(b.submits, req)
	if b.submitErr != nil {
		return nil, b.submitErr
	}
	return &api.SubmitQuestionResponse{
		QuestionID:    req.QuestionID,
		IsCorrect:     quiz.Bool(b.correct),
		ScoreAchieved: quiz.Float(10),
	}, nil
}

func (b *fakeBackend) CompleteAttempt(_ context.Context, id string) (*quiz.Attempt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.completes++
	if b.finalErr != nil {
		return nil, b.finalErr
	}
	done := time.Date(2026, 1, 1, 10, 5, 0, 0, time.UTC)
	return &quiz.Attempt{ID: id, Score: 20, CorrectAnswers: 2, Passed: true, CompletedAt: &done}, nil
}

type recordedEvent struct {
	action string
	err    error
}

type fakeEvents struct{ events []recordedEvent }

func (f *fakeEvents) RecordAttempt(_ context.Context, _ quiz.Quiz, _ string, action string, _ *quiz.Attempt, err error) {
	f.events = append(f.events, recordedEvent{action, err})
}

func (f *fakeEvents) count(action string) int {
	n := 0
	for _, e := range f.events {
		if e.action == action {
			n++
		}
	}
	return n
}

func testQuiz(mode quiz.NavigationMode) quiz.Quiz {
	return quiz.Quiz{
		ID:             "quiz-1",
		Title:          "Everyday English",
		NavigationMode: mode,
		PassingScore:   60,
		Questions: []quiz.Question{
			{ID: "q1", Type: quiz.MultipleChoice, Text: "Pick the greeting", Points: 10, Options: []quiz.Option{
				{ID: "a", Text: "Hello"}, {ID: "b", Text: "Table"},
			}},
			{ID: "q2", Type: quiz.FillInTheBlank, Text: "I _____ coffee every _____.", Points: 10},
			{ID: "q3", Type: quiz.Pronunciation, Text: "Say it", PronunciationText: "go now", Points: 10},
			{ID: "q4", Type: quiz.TrueFalse, Text: "Cats bark", Points: 10},
		},
	}
}

type harness struct {
	s       *Session
	backend *fakeBackend
	events  *fakeEvents
	device  *audio.FakeDevice
	clock   time.Time
}

func newHarness(t *testing.T, q quiz.Quiz, a quiz.Attempt) *harness {
	t.Helper()
	h := &harness{
		backend: &fakeBackend{correct: true},
		events:  &fakeEvents{},
		device:  audio.NewFakeDevice(),
		clock:   time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC),
	}
	rec := pronunciation.NewRecorder(h.device)
	if err := rec.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	if a.ID == "" {
		a.ID = "att-1"
	}
	s, err := New(q, a, Deps{
		Backend:  h.backend,
		Recorder: rec,
		Events:   h.events,
		Now:      func() time.Time { return h.clock },
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	h.s = s
	return h
}

// roundTrip sends and reconciles p the way the screen does.
func (h *harness) roundTrip(t *testing.T, p *submission.Pending) submission.Reconciled {
	t.Helper()
	if p == nil {
		t.Fatal("expected a pending submission")
	}
	return h.s.Reconcile(h.s.Send(context.Background(), p))
}

func TestMultipleChoiceRehydratesAfterRoundTrip(t *testing.T) {
	h := newHarness(t, testQuiz(quiz.NavFree), quiz.Attempt{})
	s := h.s

	p, err := s.SelectOption("b")
	if err != nil {
		t.Fatal(err)
	}
	h.roundTrip(t, p)

	if _, err := s.Next(); err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if _, err := s.Previous(); err != nil {
		t.Fatalf("Previous() error = %v", err)
	}
	if got := s.Capture.SelectedOptionID; got != "b" {
		t.Errorf("SelectedOptionID = %q, want b", got)
	}
}

func TestFreeNavigationKeepsAnswers(t *testing.T) {
	h := newHarness(t, testQuiz(quiz.NavFree), quiz.Attempt{})
	s := h.s

	p, _ := s.SelectOption("a")
	h.roundTrip(t, p)
	if _, err := s.JumpTo(1); err != nil {
		t.Fatal(err)
	}
	if _, err := s.JumpTo(0); err != nil {
		t.Fatal(err)
	}

	rec := s.Book.Get("q1")
	if rec == nil || rec.Correct == nil || !*rec.Correct {
		t.Fatalf("q1 record = %+v, want answered and correct", rec)
	}
	if rec.Status != quiz.StatusConfirmed {
		t.Errorf("status = %s, want confirmed", rec.Status)
	}
	if s.Capture.SelectedOptionID != "a" {
		t.Errorf("SelectedOptionID = %q, want a", s.Capture.SelectedOptionID)
	}
}

func TestSequentialBlocksUntilAnswered(t *testing.T) {
	h := newHarness(t, testQuiz(quiz.NavSequential), quiz.Attempt{})
	s := h.s

	if s.CanGoForward() {
		t.Error("CanGoForward() = true before answering")
	}
	if _, err := s.Next(); !errors.Is(err, navigation.ErrMoveNotAllowed) {
		t.Errorf("Next() error = %v, want ErrMoveNotAllowed", err)
	}
	p, _ := s.SelectOption("a")
	h.roundTrip(t, p)
	if _, err := s.Next(); err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if s.CanGoBack() {
		t.Error("sequential mode allows going back")
	}
	if s.CanNavigateTo(0) {
		t.Error("sequential mode allows jumping back")
	}
}

func TestBlanksCommitOnlyWhenChanged(t *testing.T) {
	h := newHarness(t, testQuiz(quiz.NavFree), quiz.Attempt{})
	s := h.s
	s.JumpTo(1)

	s.SetBlank(0, "drink")
	if p, _ := s.CommitBlanks(); p != nil {
		t.Fatal("committed with an empty blank")
	}
	s.SetBlank(1, "morning")
	p, err := s.CommitBlanks()
	if err != nil {
		t.Fatal(err)
	}
	h.roundTrip(t, p)

	if p, _ := s.CommitBlanks(); p != nil {
		t.Error("re-committed an unchanged value")
	}

	// Navigating away commits an edit.
	s.SetBlank(1, "day")
	p, err = s.Next()
	if err != nil {
		t.Fatal(err)
	}
	if p == nil {
		t.Fatal("navigation did not commit the changed blanks")
	}
	if got := p.Request.FillInBlanksAnswers; got == nil || (*got)[1] != "day" {
		t.Errorf("payload blanks = %v", got)
	}
}

func TestSubmissionFailureKeepsAnswer(t *testing.T) {
	h := newHarness(t, testQuiz(quiz.NavFree), quiz.Attempt{})
	h.backend.submitErr = &api.ErrAPI{Op: "submit", Status: 200, Code: 422, Message: "attempt closed"}

	p, _ := h.s.SelectOption("b")
	res := h.roundTrip(t, p)
	if !api.IsAPI(res.Err) {
		t.Fatalf("Err = %v, want API error", res.Err)
	}

	rec := h.s.Book.Get("q1")
	if rec == nil || rec.Answer.OptionID != "b" {
		t.Fatalf("record = %+v, want optimistic answer kept", rec)
	}
	if rec.Correct != nil || rec.Status != quiz.StatusFailed {
		t.Errorf("correct = %v status = %s", rec.Correct, rec.Status)
	}
	if !h.s.Answered(0) {
		t.Error("question not counted as answered")
	}
}

func TestPronunciationUploadThenSubmit(t *testing.T) {
	h := newHarness(t, testQuiz(quiz.NavFree), quiz.Attempt{})
	s := h.s
	s.JumpTo(2)
	ctx := context.Background()

	if err := s.StartRecording(ctx); err != nil {
		t.Fatal(err)
	}
	clip, ref, err := s.StopRecording()
	if err != nil || clip == nil {
		t.Fatalf("StopRecording() = %v, %v", clip, err)
	}
	p, err := s.AttachAudioURL(ref, "https://cdn.example.com/r/1.wav")
	if err != nil {
		t.Fatal(err)
	}
	if p.Request.AudioURL == nil || *p.Request.AudioURL != "https://cdn.example.com/r/1.wav" {
		t.Errorf("payload audio = %v", p.Request.AudioURL)
	}
	if !s.CanProceed() {
		t.Error("CanProceed() = false after upload")
	}
	if s.Recorder.State() != pronunciation.Completed {
		t.Errorf("recorder = %s, want completed", s.Recorder.State())
	}
}

func TestUploadForEarlierVisitIsRejected(t *testing.T) {
	h := newHarness(t, testQuiz(quiz.NavFree), quiz.Attempt{})
	s := h.s
	s.JumpTo(2)

	s.StartRecording(context.Background())
	_, ref, _ := s.StopRecording()
	s.JumpTo(3)
	s.JumpTo(2)

	if _, err := s.AttachAudioURL(ref, "https://cdn.example.com/late.wav"); !errors.Is(err, pronunciation.ErrSampleChanged) {
		t.Errorf("AttachAudioURL() error = %v, want ErrSampleChanged", err)
	}
	if s.Book.Answered("q3") {
		t.Error("late upload was recorded")
	}
}

func TestFinishRequiresLastAnsweredQuestion(t *testing.T) {
	h := newHarness(t, testQuiz(quiz.NavFree), quiz.Attempt{})
	s := h.s

	if err := s.BeginFinalize(false); !errors.Is(err, ErrCannotFinish) {
		t.Fatalf("BeginFinalize() on first question = %v", err)
	}
	s.JumpTo(3)
	p, _ := s.SetTrueFalse(false)
	h.roundTrip(t, p)

	if err := s.BeginFinalize(false); err != nil {
		t.Fatalf("BeginFinalize() error = %v", err)
	}
	a, err := s.Finalize(context.Background())
	route, err := s.EndFinalize(a, err)
	if err != nil {
		t.Fatal(err)
	}
	if route.AttemptID != "att-1" || route.QuizID != "quiz-1" {
		t.Errorf("route = %+v", route)
	}
	if !s.Sealed() {
		t.Error("session not sealed")
	}
	if _, err := s.SelectOption("a"); !errors.Is(err, ErrAttemptSealed) {
		t.Errorf("answer after seal error = %v", err)
	}
}

func TestFinalizeFailureIsRetryable(t *testing.T) {
	h := newHarness(t, testQuiz(quiz.NavFree), quiz.Attempt{})
	s := h.s
	h.backend.finalErr = &api.ErrTransport{Op: "complete", Err: errors.New("connection refused")}

	if err := s.BeginFinalize(true); err != nil {
		t.Fatal(err)
	}
	if err := s.BeginFinalize(true); !errors.Is(err, ErrFinalizeInFlight) {
		t.Errorf("second BeginFinalize() = %v, want ErrFinalizeInFlight", err)
	}
	a, err := s.Finalize(context.Background())
	if _, err := s.EndFinalize(a, err); err == nil {
		t.Fatal("expected finalize error")
	}
	if s.Sealed() || s.Finalizing() {
		t.Fatalf("sealed = %v finalizing = %v after failure", s.Sealed(), s.Finalizing())
	}

	h.backend.finalErr = nil
	if err := s.BeginFinalize(true); err != nil {
		t.Fatalf("retry BeginFinalize() = %v", err)
	}
	a, err = s.Finalize(context.Background())
	if _, err := s.EndFinalize(a, err); err != nil {
		t.Fatal(err)
	}
	if h.events.count(ActionFinalizeFailed) != 1 || h.events.count(ActionCompleted) != 1 {
		t.Errorf("events = %+v", h.events.events)
	}
}

func timedQuiz() quiz.Quiz {
	q := testQuiz(quiz.NavFree)
	q.HasTimer = true
	q.TimeLimitSeconds = 5
	q.WarningTimeSeconds = 2
	return q
}

// tickAll drives the countdown the way the Bubble Tea loop would.
func tickAll(s *Session, n int) (expiredAt int) {
	expiredAt = -1
	for i := range n {
		_, expired := s.Tick(timer.TickMsg{Gen: s.Timer.Gen()})
		if expired {
			expiredAt = i
		}
	}
	return expiredAt
}

func TestTimerExpiryFinalizesOnce(t *testing.T) {
	h := newHarness(t, timedQuiz(), quiz.Attempt{})
	s := h.s
	if s.StartTimer() == nil {
		t.Fatal("StartTimer() returned no tick")
	}

	if got := tickAll(s, 8); got != 4 {
		t.Fatalf("expired on tick %d, want 4", got)
	}
	if !s.Finalizing() {
		t.Fatal("expiry did not begin finalize")
	}

	// A manual finish racing the expiry is refused.
	if err := s.BeginFinalize(false); !errors.Is(err, ErrFinalizeInFlight) {
		t.Errorf("manual finish error = %v", err)
	}

	a, err := s.Finalize(context.Background())
	s.EndFinalize(a, err)
	if h.backend.completes != 1 {
		t.Errorf("CompleteAttempt called %d times, want 1", h.backend.completes)
	}
	if h.events.count(ActionExpired) != 1 {
		t.Errorf("expired events = %d", h.events.count(ActionExpired))
	}
}

func TestManualFinishBeforeExpiryWins(t *testing.T) {
	h := newHarness(t, timedQuiz(), quiz.Attempt{})
	s := h.s
	s.StartTimer()
	s.JumpTo(3)
	p, _ := s.SetTrueFalse(true)
	h.roundTrip(t, p)

	if err := s.BeginFinalize(false); err != nil {
		t.Fatal(err)
	}
	// Ticks scheduled before the finish are stale now.
	if _, expired := s.Tick(timer.TickMsg{Gen: 1}); expired {
		t.Error("stale tick expired the attempt")
	}
	if s.Timer.Active() {
		t.Error("timer still active after finish")
	}
}

func TestFailedManualFinishKeepsCountdown(t *testing.T) {
	h := newHarness(t, timedQuiz(), quiz.Attempt{})
	s := h.s
	s.StartTimer()
	tickAll(s, 1)
	s.JumpTo(3)
	p, _ := s.SetTrueFalse(true)
	h.roundTrip(t, p)

	h.backend.finalErr = &api.ErrTransport{Op: "complete", Err: errors.New("connection reset")}
	if err := s.BeginFinalize(false); err != nil {
		t.Fatal(err)
	}
	a, err := s.Finalize(context.Background())
	if _, err := s.EndFinalize(a, err); err == nil {
		t.Fatal("expected finalize error")
	}
	if !s.Timer.Active() || s.Timer.Remaining() != 4 {
		t.Fatalf("active = %v remaining = %d after failed finish", s.Timer.Active(), s.Timer.Remaining())
	}
	if s.Countdown() == nil {
		t.Fatal("Countdown() = nil after failed finish")
	}

	h.backend.finalErr = nil
	if got := tickAll(s, 10); got != 3 {
		t.Fatalf("expired on tick %d, want 3", got)
	}
	if !s.Finalizing() {
		t.Fatal("expiry did not begin finalize")
	}
	a, err = s.Finalize(context.Background())
	if _, err := s.EndFinalize(a, err); err != nil {
		t.Fatal(err)
	}
	if !s.Sealed() || h.events.count(ActionExpired) != 1 || h.backend.completes != 2 {
		t.Errorf("sealed = %v expired events = %d completes = %d",
			s.Sealed(), h.events.count(ActionExpired), h.backend.completes)
	}
}

func TestFailedForcedFinishStaysExpired(t *testing.T) {
	h := newHarness(t, timedQuiz(), quiz.Attempt{})
	s := h.s
	s.StartTimer()
	h.backend.finalErr = &api.ErrTransport{Op: "complete", Err: errors.New("connection reset")}

	if got := tickAll(s, 5); got != 4 {
		t.Fatalf("expired on tick %d, want 4", got)
	}
	a, err := s.Finalize(context.Background())
	s.EndFinalize(a, err)
	if s.Timer.Active() || !s.Timer.Expired() || s.Countdown() != nil {
		t.Errorf("active = %v expired = %v after failed forced finish", s.Timer.Active(), s.Timer.Expired())
	}
}

func TestExpiryDiscardsRecordingInProgress(t *testing.T) {
	h := newHarness(t, timedQuiz(), quiz.Attempt{})
	s := h.s
	s.StartTimer()
	s.JumpTo(2)

	if err := s.StartRecording(context.Background()); err != nil {
		t.Fatal(err)
	}
	ref := s.RecordingRef()

	tickAll(s, 5)
	if !s.Finalizing() {
		t.Fatal("expiry did not begin finalize")
	}
	if s.Recorder.State() != pronunciation.Idle || h.device.OpenStreams() != 0 {
		t.Errorf("recorder = %s open streams = %d", s.Recorder.State(), h.device.OpenStreams())
	}
	if _, err := s.AttachAudioURL(ref, "https://cdn.example.com/late.wav"); err == nil {
		t.Error("late upload accepted during finalize")
	}

	a, err := s.Finalize(context.Background())
	s.EndFinalize(a, err)
	if h.backend.completes != 1 || len(h.backend.submits) != 0 {
		t.Errorf("completes = %d submits = %d", h.backend.completes, len(h.backend.submits))
	}
}

func TestResumeSeedsAnswersAndClock(t *testing.T) {
	started := time.Date(2026, 1, 1, 9, 59, 58, 0, time.UTC)
	a := quiz.Attempt{
		ID:        "att-9",
		StartedAt: &started,
		Answers: []quiz.AnswerRecord{{
			QuestionID:   "q1",
			QuestionType: quiz.MultipleChoice,
			Answer:       quiz.AnswerValue{Kind: quiz.MultipleChoice, OptionID: "a"},
			Correct:      quiz.Bool(true),
		}},
	}
	h := newHarness(t, timedQuiz(), a)
	s := h.s

	if s.Capture.SelectedOptionID != "a" {
		t.Errorf("resumed selection = %q", s.Capture.SelectedOptionID)
	}
	s.StartTimer()
	if got := s.Timer.Remaining(); got != 3 {
		t.Errorf("Remaining() = %d, want 3", got)
	}
}

func TestNewRejectsCompletedAttempt(t *testing.T) {
	done := time.Now()
	_, err := New(testQuiz(quiz.NavFree), quiz.Attempt{ID: "a", CompletedAt: &done}, Deps{Backend: &fakeBackend{}})
	if !errors.Is(err, ErrAttemptSealed) {
		t.Errorf("New() error = %v, want ErrAttemptSealed", err)
	}
}
