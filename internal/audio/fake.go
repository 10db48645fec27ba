package audio

import (
	"context"
	"sync"
	"time"
)

// FakeDevice is an in-memory Device for tests and the sandbox.
type FakeDevice struct {
	mu sync.Mutex

	// InitErr and OpenErr are returned by Init and Open when set.
	InitErr error
	OpenErr error

	// Clip is what every stream returns from Stop.
	Clip *Clip

	Inits   int
	Opens   int
	streams []*FakeStream
}

// NewFakeDevice returns a device producing a short WAV-like clip.
func NewFakeDevice() *FakeDevice {
	return &FakeDevice{Clip: &Clip{Data: []byte("RIFF....WAVEfmt "), MIME: "audio/wav", Duration: time.Second}}
}

func (d *FakeDevice) Init(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Inits++
	return d.InitErr
}

func (d *FakeDevice) Open(ctx context.Context) (Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Opens++
	if d.OpenErr != nil {
		return nil, d.OpenErr
	}
	s := &FakeStream{clip: d.Clip}
	d.streams = append(d.streams, s)
	return s, nil
}

// OpenStreams returns how many streams have not been closed.
func (d *FakeDevice) OpenStreams() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, s := range d.streams {
		if !s.Closed() {
			n++
		}
	}
	return n
}

// FakeStream is the stream handed out by FakeDevice.
type FakeStream struct {
	mu      sync.Mutex
	clip    *Clip
	stopped bool
	closed  bool
}

func (s *FakeStream) Stop() (*Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.closed {
		return nil, ErrNotRecording
	}
	s.stopped = true
	if s.clip == nil {
		return nil, ErrNoEncoding
	}
	c := *s.clip
	return &c, nil
}

func (s *FakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether the stream was released.
func (s *FakeStream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// FakePlayer records play requests without producing sound.
type FakePlayer struct {
	mu    sync.Mutex
	Err   error
	Plays []string
}

func (p *FakePlayer) Play(ctx context.Context, url string, limit time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Plays = append(p.Plays, url)
	return p.Err
}
