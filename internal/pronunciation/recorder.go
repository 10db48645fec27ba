package pronunciation

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhisek/lingoquiz/internal/audio"
)

var (
	// ErrNotInitialized means Start was called before a successful Init.
	ErrNotInitialized = errors.New("microphone not initialized")

	// ErrNoSample means there is no reference text to record against.
	ErrNoSample = errors.New("no sample selected")

	// ErrSampleChanged means the sample changed while recording or scoring.
	ErrSampleChanged = errors.New("sample changed during recording, please record again")
)

// DeviceErrorKind classifies a microphone failure.
type DeviceErrorKind int

const (
	DevicePermission DeviceErrorKind = iota
	DeviceUnsupported
	DeviceEncoding
	DeviceOther
)

// DeviceError is a microphone failure the learner has to fix.
type DeviceError struct {
	Kind DeviceErrorKind
	Err  error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("microphone: %v", e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// Hint tells the learner how to recover.
func (e *DeviceError) Hint() string {
	switch e.Kind {
	case DevicePermission:
		return "Microphone access was denied. Grant access to your terminal and press r to retry."
	case DeviceUnsupported:
		return "No audio recorder found. Install arecord or sox, or set audio.record_command."
	case DeviceEncoding:
		return "The recorder cannot produce WAV audio. Check audio.record_command."
	}
	return "The microphone could not be used. Press r to retry."
}

func deviceError(err error) *DeviceError {
	kind := DeviceOther
	switch {
	case errors.Is(err, audio.ErrPermissionDenied):
		kind = DevicePermission
	case errors.Is(err, audio.ErrUnsupported):
		kind = DeviceUnsupported
	case errors.Is(err, audio.ErrNoEncoding):
		kind = DeviceEncoding
	}
	return &DeviceError{Kind: kind, Err: err}
}

// SampleRef identifies the sample a recording belongs to. Gen changes each
// time a sample is (re)selected, so the same text picked twice is distinct.
type SampleRef struct {
	Key string
	Gen uint64
}

// Valid reports whether the reference names a sample.
func (r SampleRef) Valid() bool { return r.Key != "" }

// Recorder owns the microphone for one recording at a time.
type Recorder struct {
	device audio.Device
	inited bool

	state  State
	stream audio.Stream
	ref    SampleRef
	clip   *audio.Clip
}

// NewRecorder returns an idle recorder on device.
func NewRecorder(device audio.Device) *Recorder {
	return &Recorder{device: device}
}

func (r *Recorder) State() State { return r.state }
func (r *Recorder) Ref() SampleRef { return r.ref }
func (r *Recorder) Clip() *audio.Clip { return r.clip }
func (r *Recorder) Ready() bool { return r.inited }

// Init probes the microphone. It may be called again after a failure.
func (r *Recorder) Init(ctx context.Context) error {
	if err := r.device.Init(ctx); err != nil {
		r.inited = false
		return deviceError(err)
	}
	r.inited = true
	return nil
}

// Start opens the microphone for ref. On failure the recorder stays idle.
func (r *Recorder) Start(ctx context.Context, ref SampleRef) error {
	if !r.inited {
		return ErrNotInitialized
	}
	if !ref.Valid() {
		return ErrNoSample
	}
	to, err := next(r.state, EventStart)
	if err != nil {
		return err
	}
	return r.open(ctx, ref, to)
}

func (r *Recorder) open(ctx context.Context, ref SampleRef, to State) error {
	stream, err := r.device.Open(ctx)
	if err != nil {
		r.state = Idle
		return deviceError(err)
	}
	r.stream = stream
	r.ref = ref
	r.clip = nil
	r.state = to
	return nil
}

// Stop finalizes the clip for current. If current no longer matches the
// sample being recorded, the clip is dropped and the recorder returns to idle.
// The microphone is released in every case.
func (r *Recorder) Stop(current SampleRef) (*audio.Clip, error) {
	to, err := next(r.state, EventStop)
	if err != nil {
		return nil, err
	}
	defer r.release()

	if current != r.ref {
		r.state = Idle
		r.ref = SampleRef{}
		return nil, ErrSampleChanged
	}

	clip, err := r.stream.Stop()
	if err != nil {
		r.state = Idle
		return nil, deviceError(err)
	}
	r.clip = clip
	r.state = to
	return clip, nil
}

// Succeed completes processing for ref. A result for any other sample is
// rejected with ErrSampleChanged.
func (r *Recorder) Succeed(ref SampleRef) error {
	return r.finish(ref, EventSucceed)
}

// Fail returns to idle after a processing failure for ref.
func (r *Recorder) Fail(ref SampleRef) error {
	return r.finish(ref, EventFail)
}

func (r *Recorder) finish(ref SampleRef, ev Event) error {
	if r.state != Processing || ref != r.ref {
		return ErrSampleChanged
	}
	to, err := next(r.state, ev)
	if err != nil {
		return err
	}
	r.state = to
	if to == Idle {
		r.clip = nil
	}
	return nil
}

// ReRecord discards the local clip and starts a new recording for ref.
func (r *Recorder) ReRecord(ctx context.Context, ref SampleRef) error {
	if !ref.Valid() {
		return ErrNoSample
	}
	to, err := next(r.state, EventReRecord)
	if err != nil {
		return err
	}
	r.clip = nil
	return r.open(ctx, ref, to)
}

// Abort releases the microphone and returns to idle from any state.
// Results still in flight for the aborted sample will be rejected.
func (r *Recorder) Abort() {
	r.release()
	r.state = Idle
	r.ref = SampleRef{}
	r.clip = nil
}

// Close aborts and releases the device.
func (r *Recorder) Close() error {
	r.Abort()
	return nil
}

func (r *Recorder) release() {
	if r.stream != nil {
		_ = r.stream.Close()
		r.stream = nil
	}
}
