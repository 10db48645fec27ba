package pronunciation

import (
	"context"
	"errors"
	"testing"

	"github.com/abhisek/lingoquiz/internal/audio"
)

type recordingJournal struct {
	practices []Score
}

func (j *recordingJournal) RecordPractice(_ context.Context, _ Sample, s Score) {
	j.practices = append(j.practices, s)
}

func newTestSession(t *testing.T, b *stubBackend) (*Session, *audio.FakeDevice, *recordingJournal) {
	t.Helper()
	dev := audio.NewFakeDevice()
	rec := NewRecorder(dev)
	if err := rec.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	j := &recordingJournal{}
	return NewSession(b, rec, NewProcessor(b, b), j, "easy"), dev, j
}

func practiseOnce(t *testing.T, s *Session) error {
	t.Helper()
	ctx := context.Background()
	if err := s.StartRecording(ctx); err != nil {
		t.Fatalf("StartRecording() error = %v", err)
	}
	clip, ref, err := s.StopRecording()
	if err != nil {
		t.Fatalf("StopRecording() error = %v", err)
	}
	res, perr := s.Process(ctx, s.Sample().Text, clip)
	return s.Complete(ctx, ref, res, perr)
}

func TestSessionScoresAndAverages(t *testing.T) {
	b := &stubBackend{score: &Score{Accuracy: 80, LetterMask: "10 11"}}
	s, _, j := newTestSession(t, b)
	ctx := context.Background()

	sample, err := s.Fetch(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	s.SetSample(sample)

	if err := practiseOnce(t, s); err != nil {
		t.Fatalf("first practice: %v", err)
	}
	if s.Recorder().State() != Completed {
		t.Fatalf("state = %s, want completed", s.Recorder().State())
	}
	words := s.Words()
	if len(words) != 2 || words[0].Letters[1].Correct {
		t.Errorf("words = %+v", words)
	}

	// Re-record from completed.
	b.score = &Score{Accuracy: 100, LetterMask: "11 111"}
	if err := practiseOnce(t, s); err != nil {
		t.Fatalf("second practice: %v", err)
	}
	if got := s.Stats().Average(); got != 90 {
		t.Errorf("Average() = %v, want 90", got)
	}
	if len(j.practices) != 2 {
		t.Errorf("journaled %d practices, want 2", len(j.practices))
	}
}

func TestSessionFetchValidatesCustomText(t *testing.T) {
	s, _, _ := newTestSession(t, &stubBackend{})
	long := "a b c d e f g h i j k l m n o p q r s t u"
	if _, err := s.Fetch(context.Background(), long); !errors.Is(err, ErrCustomTextTooLong) {
		t.Errorf("Fetch() error = %v, want ErrCustomTextTooLong", err)
	}
	sample, err := s.Fetch(context.Background(), "good morning")
	if err != nil || !sample.Custom {
		t.Errorf("Fetch(custom) = %+v, %v", sample, err)
	}
}

func TestSessionDropsResultForReplacedSample(t *testing.T) {
	b := &stubBackend{score: &Score{Accuracy: 50}}
	s, dev, j := newTestSession(t, b)
	ctx := context.Background()

	first, _ := s.Fetch(ctx, "")
	s.SetSample(first)
	if err := s.StartRecording(ctx); err != nil {
		t.Fatal(err)
	}
	clip, ref, err := s.StopRecording()
	if err != nil {
		t.Fatal(err)
	}
	res, _ := s.Process(ctx, first.Text, clip)

	// Learner loads the same text again while scoring is in flight.
	again, _ := s.Fetch(ctx, "")
	s.SetSample(again)

	if err := s.Complete(ctx, ref, res, nil); !errors.Is(err, ErrSampleChanged) {
		t.Fatalf("Complete() error = %v, want ErrSampleChanged", err)
	}
	if s.Stats().Count != 0 || len(j.practices) != 0 || s.Last() != nil {
		t.Errorf("stale result was applied")
	}
	if s.Recorder().State() != Idle || dev.OpenStreams() != 0 {
		t.Errorf("state = %s open = %d", s.Recorder().State(), dev.OpenStreams())
	}
}

func TestSessionProcessingFailureReturnsToIdle(t *testing.T) {
	b := &stubBackend{scoreErr: errors.New("scoring down")}
	s, _, _ := newTestSession(t, b)
	sample, _ := s.Fetch(context.Background(), "")
	s.SetSample(sample)

	if err := practiseOnce(t, s); err == nil {
		t.Fatal("expected processing error")
	}
	if s.Recorder().State() != Idle {
		t.Errorf("state = %s, want idle", s.Recorder().State())
	}
	if s.Stats().Count != 0 {
		t.Error("failed score counted")
	}
}

func TestSessionRecordWithoutSample(t *testing.T) {
	s, _, _ := newTestSession(t, &stubBackend{})
	if err := s.StartRecording(context.Background()); !errors.Is(err, ErrNoSample) {
		t.Errorf("StartRecording() error = %v, want ErrNoSample", err)
	}
}
