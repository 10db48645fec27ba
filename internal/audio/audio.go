// Package audio provides scoped access to the microphone and to playback
// for listening questions.
package audio

import (
	"context"
	"encoding/base64"
	"errors"
	"time"
)

var (
	// ErrUnsupported means no recorder or player is available on this system.
	ErrUnsupported = errors.New("audio capture is not supported on this system")

	// ErrPermissionDenied means the microphone exists but access was refused.
	ErrPermissionDenied = errors.New("microphone permission denied")

	// ErrNoEncoding means the recorder cannot produce a supported container.
	ErrNoEncoding = errors.New("no supported audio encoding")

	// ErrNotRecording is returned when stopping a stream that was never started.
	ErrNotRecording = errors.New("not recording")
)

// Clip is a finalized recording.
type Clip struct {
	Data     []byte
	MIME     string
	Duration time.Duration
}

// Base64 returns the clip payload as standard base64.
func (c *Clip) Base64() string {
	if c == nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(c.Data)
}

// Filename returns a name suitable for a multipart upload.
func (c *Clip) Filename() string {
	switch c.MIME {
	case "audio/webm":
		return "recording.webm"
	case "audio/ogg":
		return "recording.ogg"
	default:
		return "recording.wav"
	}
}

// Device is a microphone source. Init probes support and permission; Open
// acquires the microphone for one recording.
type Device interface {
	Init(ctx context.Context) error
	Open(ctx context.Context) (Stream, error)
}

// Stream is an open microphone. Stop finalizes the clip; Close releases the
// device and is safe to call more than once.
type Stream interface {
	Stop() (*Clip, error)
	Close() error
}

// Player plays a remote audio resource for at most limit.
// A zero limit means play to the end.
type Player interface {
	Play(ctx context.Context, url string, limit time.Duration) error
}
