package pronunciation

import (
	"context"
	"strings"

	"github.com/abhisek/lingoquiz/internal/audio"
)

// Journal records completed practice attempts. Implementations must not block.
type Journal interface {
	RecordPractice(ctx context.Context, sample Sample, score Score)
}

// Session is a practice run: one sample at a time, recorded and scored any
// number of times, with a running average.
type Session struct {
	source    SampleSource
	recorder  *Recorder
	processor *Processor
	journal   Journal
	level     string

	sample *Sample
	gen    uint64
	last   *Result
	stats  Stats
}

// NewSession returns a practice session at the given level.
func NewSession(source SampleSource, recorder *Recorder, processor *Processor, journal Journal, level string) *Session {
	return &Session{source: source, recorder: recorder, processor: processor, journal: journal, level: level}
}

func (s *Session) Sample() *Sample { return s.sample }
func (s *Session) Recorder() *Recorder { return s.recorder }
func (s *Session) Last() *Result { return s.last }
func (s *Session) Stats() Stats { return s.stats }
func (s *Session) Level() string { return s.level }
func (s *Session) SetLevel(level string) { s.level = level }

// Ref identifies the current sample.
func (s *Session) Ref() SampleRef {
	if s.sample == nil {
		return SampleRef{}
	}
	return SampleRef{Key: s.sample.ID, Gen: s.gen}
}

// Fetch requests a new sample. Custom text is validated before any call.
// It does not change the session; pass the result to SetSample.
func (s *Session) Fetch(ctx context.Context, customText string) (*Sample, error) {
	if strings.TrimSpace(customText) != "" {
		if err := ValidateCustomText(customText); err != nil {
			return nil, err
		}
	}
	return s.source.Sample(ctx, s.level, customText)
}

// SetSample makes sample current. Any recording or pending score for the
// previous sample is abandoned.
func (s *Session) SetSample(sample *Sample) {
	s.recorder.Abort()
	s.sample = sample
	s.gen++
	s.last = nil
}

// StartRecording opens the microphone for the current sample, re-recording
// if a score is already shown.
func (s *Session) StartRecording(ctx context.Context) error {
	if s.sample == nil {
		return ErrNoSample
	}
	if s.recorder.State() == Completed {
		return s.recorder.ReRecord(ctx, s.Ref())
	}
	return s.recorder.Start(ctx, s.Ref())
}

// StopRecording finalizes the clip for the current sample.
func (s *Session) StopRecording() (*audio.Clip, SampleRef, error) {
	ref := s.Ref()
	clip, err := s.recorder.Stop(ref)
	return clip, ref, err
}

// Process uploads and scores clip. It does not change the session.
func (s *Session) Process(ctx context.Context, text string, clip *audio.Clip) (*Result, error) {
	return s.processor.Process(ctx, text, clip)
}

// Complete applies a processing outcome for ref. Outcomes for a sample that
// is no longer current are dropped with ErrSampleChanged.
func (s *Session) Complete(ctx context.Context, ref SampleRef, res *Result, procErr error) error {
	if ref != s.Ref() {
		return ErrSampleChanged
	}
	if procErr != nil {
		if err := s.recorder.Fail(ref); err != nil {
			return err
		}
		return procErr
	}
	if err := s.recorder.Succeed(ref); err != nil {
		return err
	}
	s.last = res
	if res.Score != nil {
		s.stats.Add(res.Score.Accuracy)
		if s.journal != nil {
			s.journal.RecordPractice(ctx, *s.sample, *res.Score)
		}
	}
	return nil
}

// Words returns the letter-level breakdown of the last score.
func (s *Session) Words() []Word {
	if s.sample == nil || s.last == nil || s.last.Score == nil {
		return nil
	}
	return Words(s.sample.Text, s.last.Score.LetterMask)
}

// Close releases the microphone.
func (s *Session) Close() error {
	return s.recorder.Close()
}
