// Package attempt ties one quiz attempt together: navigation, answer capture,
// submission, the countdown and finalization. A Session is owned by a single
// goroutine (the Bubble Tea update loop); network calls are exposed as plain
// methods that callers run inside commands.
package attempt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/lingoquiz/internal/audio"
	"github.com/abhisek/lingoquiz/internal/capture"
	"github.com/abhisek/lingoquiz/internal/navigation"
	"github.com/abhisek/lingoquiz/internal/pronunciation"
	"github.com/abhisek/lingoquiz/internal/quiz"
	"github.com/abhisek/lingoquiz/internal/submission"
	"github.com/abhisek/lingoquiz/internal/timer"
)

var (
	// ErrAttemptSealed means the attempt has been finalized.
	ErrAttemptSealed = errors.New("attempt already completed")

	// ErrFinalizeInFlight means a finalize call is already running.
	ErrFinalizeInFlight = errors.New("attempt is being submitted")

	// ErrCannotFinish means the learner is not on a question from which the
	// attempt may be finished, or it is unanswered.
	ErrCannotFinish = errors.New("answer the last question before finishing")

	// ErrNoMicrophone means the session was built without a recorder.
	ErrNoMicrophone = errors.New("no microphone configured")

	// ErrUnknownOption means the chosen option is not one of the question's.
	ErrUnknownOption = errors.New("unknown option")

	// ErrWrongType means the action belongs to another question type.
	ErrWrongType = errors.New("action does not apply to this question")
)

// Finalizer completes an attempt on the platform.
type Finalizer interface {
	CompleteAttempt(ctx context.Context, attemptID string) (*quiz.Attempt, error)
}

// Backend is everything a session needs from the platform.
type Backend interface {
	submission.Submitter
	Finalizer
}

// EventJournal records attempt lifecycle steps.
type EventJournal interface {
	RecordAttempt(ctx context.Context, q quiz.Quiz, attemptID, action string, a *quiz.Attempt, err error)
}

// Deps are a session's collaborators. Recorder, Journal and Events are
// optional.
type Deps struct {
	Backend  Backend
	Recorder *pronunciation.Recorder
	Journal  submission.Journal
	Events   EventJournal
	Logger   *slog.Logger
	Now      func() time.Time
}

// ResultsRoute names the results page to show after finalization.
type ResultsRoute struct {
	QuizID    string
	AttemptID string
}

// Session is one attempt in progress.
type Session struct {
	Quiz      quiz.Quiz
	AttemptID string
	StartedAt time.Time

	Nav      *navigation.Controller
	Capture  *capture.State
	Book     *submission.Book
	Pipeline *submission.Pipeline
	Timer    *timer.Timer
	Recorder *pronunciation.Recorder

	backend Backend
	events  EventJournal
	logger  *slog.Logger
	now     func() time.Time

	// recGen changes whenever the question on screen changes, so a recording
	// or upload started for one visit cannot land on another.
	recGen uint64

	finalizing bool
	result     *quiz.Attempt
}

// New opens a session for attempt a of quiz q. Answers already on the
// attempt seed the local book so a resumed attempt shows them.
func New(q quiz.Quiz, a quiz.Attempt, deps Deps) (*Session, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if a.Completed() {
		return nil, fmt.Errorf("attempt %s: %w", a.ID, ErrAttemptSealed)
	}
	if deps.Backend == nil {
		return nil, errors.New("attempt session needs a backend")
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	book := submission.NewBook(q)
	book.Seed(a.Answers)

	s := &Session{
		Quiz:      q,
		AttemptID: a.ID,
		StartedAt: now(),
		Nav:       navigation.New(q.NavigationMode, len(q.Questions)),
		Capture:   &capture.State{},
		Book:      book,
		Pipeline: submission.NewPipeline(book, deps.Backend, submission.Options{
			Journal: deps.Journal,
			Logger:  logger,
			Now:     now,
		}),
		Timer:    timer.New(q),
		Recorder: deps.Recorder,
		backend:  deps.Backend,
		events:   deps.Events,
		logger:   logger.With("attempt_id", a.ID, "quiz_id", q.ID),
		now:      now,
	}
	if a.StartedAt != nil {
		s.StartedAt = *a.StartedAt
	}
	s.hydrate()
	return s, nil
}

// StartTimer starts the countdown, counting time already spent on a resumed
// attempt. Check Timer.Expired afterwards: a resumed attempt may already be
// out of time.
func (s *Session) StartTimer() tea.Cmd {
	if !s.Timer.Enabled() {
		return nil
	}
	spent := int(s.now().Sub(s.StartedAt) / time.Second)
	if spent <= 0 {
		return s.Timer.Start()
	}
	return s.Timer.Resume(s.Quiz.TimeLimitSeconds - spent)
}

// Tick applies a countdown tick. It reports true when this tick expired the
// attempt and a forced finalize has begun; the caller must then run Finalize.
func (s *Session) Tick(msg timer.TickMsg) (tea.Cmd, bool) {
	res := s.Timer.Tick(msg)
	if !res.Applied {
		return nil, false
	}
	if !res.Expired {
		return s.Timer.Cmd(), false
	}
	return nil, s.Expire() == nil
}

// Countdown returns the next tick of a running countdown, or nil.
func (s *Session) Countdown() tea.Cmd {
	if !s.Timer.Active() {
		return nil
	}
	return s.Timer.Cmd()
}

// Question returns the question on screen.
func (s *Session) Question() quiz.Question {
	return s.Quiz.Questions[s.Nav.Current()]
}

// Sealed reports whether the attempt has been finalized.
func (s *Session) Sealed() bool { return s.result != nil }

// Finalizing reports whether a finalize call is in flight.
func (s *Session) Finalizing() bool { return s.finalizing }

// Result returns the completed attempt, once sealed.
func (s *Session) Result() *quiz.Attempt { return s.result }

// Answered reports whether question i has a local answer.
func (s *Session) Answered(i int) bool {
	if i < 0 || i >= len(s.Quiz.Questions) {
		return false
	}
	return s.Book.Answered(s.Quiz.Questions[i].ID)
}

func (s *Session) CanProceed() bool { return s.Capture.CanProceed(s.Question()) }
func (s *Session) CanGoBack() bool { return !s.locked() && s.Nav.CanGoBack() }
func (s *Session) CanGoForward() bool { return !s.locked() && s.Nav.CanGoForward(s.CanProceed) }

// CanNavigateTo reports whether the picker may jump to question i.
func (s *Session) CanNavigateTo(i int) bool {
	return !s.locked() && i != s.Nav.Current() && s.Nav.CanNavigateTo(i)
}

// CanFinish reports whether finishing is allowed now. Once the countdown has
// expired finishing is always forced.
func (s *Session) CanFinish(forced bool) bool {
	if s.locked() {
		return false
	}
	return forced || s.Timer.Expired() || s.Nav.CanFinish(s.CanProceed, false)
}

func (s *Session) locked() bool { return s.finalizing || s.result != nil }

// Next moves forward. A changed fill-in-the-blank answer is committed first,
// as leaving the question blurs its inputs.
func (s *Session) Next() (*submission.Pending, error) {
	return s.move(func() error { return s.Nav.Next(s.CanProceed) }, s.CanGoForward())
}

// Previous moves back one question.
func (s *Session) Previous() (*submission.Pending, error) {
	return s.move(s.Nav.Previous, s.CanGoBack())
}

// JumpTo moves to question i.
func (s *Session) JumpTo(i int) (*submission.Pending, error) {
	return s.move(func() error { return s.Nav.JumpTo(i) }, s.CanNavigateTo(i))
}

func (s *Session) move(step func() error, allowed bool) (*submission.Pending, error) {
	if err := s.writable(); err != nil {
		return nil, err
	}
	if !allowed {
		return nil, navigation.ErrMoveNotAllowed
	}
	pending, err := s.CommitBlanks()
	if err != nil {
		s.logger.Debug("blank commit skipped on navigation", "error", err)
		pending = nil
	}
	if err := step(); err != nil {
		return pending, err
	}
	s.hydrate()
	return pending, nil
}

// hydrate loads the stored answer for the current question and abandons any
// recording from the previous visit.
func (s *Session) hydrate() {
	if s.Recorder != nil && s.Recorder.State() != pronunciation.Idle {
		s.Recorder.Abort()
	}
	s.recGen++
	q := s.Question()
	s.Capture.Rehydrate(q, s.Book.Get(q.ID), s.now())
}

func (s *Session) writable() error {
	switch {
	case s.result != nil:
		return ErrAttemptSealed
	case s.finalizing:
		return ErrFinalizeInFlight
	}
	return nil
}

// submit writes the current answer optimistically and returns the request
// to send.
func (s *Session) submit() (*submission.Pending, error) {
	q := s.Question()
	now := s.now()
	p, err := s.Pipeline.Begin(s.AttemptID, q, s.Capture.Value(q), s.Capture.Elapsed(now))
	if err != nil {
		return nil, err
	}
	s.Capture.Restart(now)
	return p, nil
}

// SelectOption picks an option. Multiple choice submits at once; listening
// submits once the audio has been played.
func (s *Session) SelectOption(id string) (*submission.Pending, error) {
	if err := s.writable(); err != nil {
		return nil, err
	}
	q := s.Question()
	if q.Type != quiz.MultipleChoice && q.Type != quiz.Listening {
		return nil, ErrWrongType
	}
	if !q.HasOption(id) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOption, id)
	}
	s.Capture.SelectedOptionID = id
	if q.Type == quiz.Listening && !s.Capture.Listened {
		return nil, nil
	}
	return s.submit()
}

// SetTrueFalse answers a true/false question and submits at once.
func (s *Session) SetTrueFalse(v bool) (*submission.Pending, error) {
	if err := s.writable(); err != nil {
		return nil, err
	}
	if s.Question().Type != quiz.TrueFalse {
		return nil, ErrWrongType
	}
	s.Capture.TrueFalse = quiz.Bool(v)
	return s.submit()
}

// SetBlank edits blank i without submitting.
func (s *Session) SetBlank(i int, text string) bool {
	if s.locked() || s.Question().Type != quiz.FillInTheBlank {
		return false
	}
	return s.Capture.SetBlank(i, text)
}

// CommitBlanks submits the blanks when they differ from the last submitted
// value and every blank is filled. Otherwise it returns nil.
func (s *Session) CommitBlanks() (*submission.Pending, error) {
	if err := s.writable(); err != nil {
		return nil, err
	}
	q := s.Question()
	if q.Type != quiz.FillInTheBlank || !s.Capture.CanProceed(q) {
		return nil, nil
	}
	if rec := s.Book.Get(q.ID); rec != nil && slices.Equal(rec.Answer.Blanks, s.Capture.Value(q).Blanks) {
		return nil, nil
	}
	return s.submit()
}

// MarkListened records that the listening audio was played, submitting an
// option chosen beforehand.
func (s *Session) MarkListened() (*submission.Pending, error) {
	if err := s.writable(); err != nil {
		return nil, err
	}
	q := s.Question()
	if q.Type != quiz.Listening {
		return nil, ErrWrongType
	}
	already := s.Capture.Listened
	s.Capture.Listened = true
	if already || s.Capture.SelectedOptionID == "" {
		return nil, nil
	}
	return s.submit()
}

// InitMicrophone probes the microphone; it may be retried after a failure.
func (s *Session) InitMicrophone(ctx context.Context) error {
	if s.Recorder == nil {
		return ErrNoMicrophone
	}
	return s.Recorder.Init(ctx)
}

// RecordingRef identifies the current question visit for recording.
func (s *Session) RecordingRef() pronunciation.SampleRef {
	return pronunciation.SampleRef{Key: s.Question().ID, Gen: s.recGen}
}

// StartRecording opens the microphone for the current pronunciation
// question, re-recording if one was already made this visit.
func (s *Session) StartRecording(ctx context.Context) error {
	if err := s.writable(); err != nil {
		return err
	}
	if s.Recorder == nil {
		return ErrNoMicrophone
	}
	if s.Question().Type != quiz.Pronunciation {
		return ErrWrongType
	}
	if s.Recorder.State() == pronunciation.Completed {
		return s.Recorder.ReRecord(ctx, s.RecordingRef())
	}
	return s.Recorder.Start(ctx, s.RecordingRef())
}

// StopRecording finalizes the clip. The caller uploads it and reports back
// through AttachAudioURL or RecordingFailed with the returned ref.
func (s *Session) StopRecording() (*audio.Clip, pronunciation.SampleRef, error) {
	if s.Recorder == nil {
		return nil, pronunciation.SampleRef{}, ErrNoMicrophone
	}
	ref := s.RecordingRef()
	clip, err := s.Recorder.Stop(ref)
	if err != nil {
		return nil, ref, err
	}
	s.Capture.LocalClip = clip
	return clip, ref, nil
}

// AttachAudioURL completes a recording once its upload resolved and submits
// the answer. Uploads for an earlier visit are rejected.
func (s *Session) AttachAudioURL(ref pronunciation.SampleRef, url string) (*submission.Pending, error) {
	if err := s.writable(); err != nil {
		return nil, err
	}
	if s.Recorder == nil || ref != s.RecordingRef() {
		return nil, pronunciation.ErrSampleChanged
	}
	if err := s.Recorder.Succeed(ref); err != nil {
		return nil, err
	}
	s.Capture.AudioURL = url
	s.Capture.Recorded = true
	return s.submit()
}

// RecordingFailed returns the recorder to idle after a failed upload.
func (s *Session) RecordingFailed(ref pronunciation.SampleRef) error {
	if s.Recorder == nil || ref != s.RecordingRef() {
		return pronunciation.ErrSampleChanged
	}
	s.Capture.LocalClip = nil
	return s.Recorder.Fail(ref)
}

// Send transmits a pending submission. Safe to call from any goroutine.
func (s *Session) Send(ctx context.Context, p *submission.Pending) submission.Outcome {
	return s.Pipeline.Send(ctx, p)
}

// Reconcile applies a send outcome to the book.
func (s *Session) Reconcile(o submission.Outcome) submission.Reconciled {
	return s.Pipeline.Reconcile(o)
}

// Expire begins a forced finalize after the countdown ran out. It is a no-op
// error when a finalize is already running or done, so expiry and a manual
// finish finalize once.
func (s *Session) Expire() error {
	if err := s.BeginFinalize(true); err != nil {
		return err
	}
	s.journal(ActionExpired, nil, nil)
	return nil
}

// BeginFinalize guards the finalize call. It stops the countdown and
// discards any recording in progress.
func (s *Session) BeginFinalize(forced bool) error {
	if err := s.writable(); err != nil {
		return err
	}
	if !s.CanFinish(forced) {
		return ErrCannotFinish
	}
	s.finalizing = true
	s.Timer.Stop()
	if s.Recorder != nil {
		s.Recorder.Abort()
	}
	// Results for a discarded recording must not land.
	s.recGen++
	return nil
}

// Finalize asks the platform to complete the attempt. Run it after a
// successful BeginFinalize.
func (s *Session) Finalize(ctx context.Context) (*quiz.Attempt, error) {
	return s.backend.CompleteAttempt(ctx, s.AttemptID)
}

// EndFinalize applies the finalize outcome. On success the session is
// sealed; on failure the guard is released so finishing can be retried and
// the attempt stays in progress. A countdown stopped by a manual finish
// picks up where it left off; schedule Countdown to keep it ticking.
func (s *Session) EndFinalize(a *quiz.Attempt, err error) (*ResultsRoute, error) {
	if s.result != nil {
		return s.route(), nil
	}
	s.finalizing = false
	if err != nil {
		s.logger.Warn("finalize failed", "error", err)
		s.journal(ActionFinalizeFailed, nil, err)
		if s.Timer.Enabled() && !s.Timer.Expired() && !s.Timer.Active() {
			s.Timer.Resume(s.Timer.Remaining())
		}
		return nil, err
	}
	if a == nil {
		a = &quiz.Attempt{ID: s.AttemptID, QuizID: s.Quiz.ID}
	}
	if a.CompletedAt == nil {
		t := s.now()
		a.CompletedAt = &t
	}
	s.result = a
	s.journal(ActionCompleted, a, nil)
	s.logger.Info("attempt completed", "score", a.Score, "passed", a.Passed)
	return s.route(), nil
}

func (s *Session) route() *ResultsRoute {
	return &ResultsRoute{QuizID: s.Quiz.ID, AttemptID: s.AttemptID}
}

// Attempt lifecycle actions written to the event journal.
const (
	ActionExpired        = "expired"
	ActionCompleted      = "completed"
	ActionFinalizeFailed = "finalize_failed"
)

func (s *Session) journal(action string, a *quiz.Attempt, err error) {
	if s.events != nil {
		s.events.RecordAttempt(context.Background(), s.Quiz, s.AttemptID, action, a, err)
	}
}
