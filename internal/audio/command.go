package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"
)

// startupGrace is how long Open waits for the recorder to fail fast
// (device busy, permission refused) before treating it as recording.
const startupGrace = 150 * time.Millisecond

// recorders are tried in order when no command is configured.
var recorders = [][]string{
	{"arecord", "-q", "-f", "S16_LE", "-r", "16000", "-c", "1", "-t", "wav"},
	{"rec", "-q", "-r", "16000", "-c", "1", "-b", "16", "-t", "wav"},
}

// CommandDevice records by running an external recorder that writes a WAV
// file whose path is appended as the last argument.
type CommandDevice struct {
	// Command overrides recorder discovery. The output path is appended.
	Command []string

	resolved []string
}

// NewCommandDevice returns a device using command, or the first recorder
// found on PATH when command is empty.
func NewCommandDevice(command string) *CommandDevice {
	return &CommandDevice{Command: strings.Fields(command)}
}

// Init resolves the recorder binary.
func (d *CommandDevice) Init(ctx context.Context) error {
	candidates := recorders
	if len(d.Command) > 0 {
		candidates = [][]string{d.Command}
	}
	for _, c := range candidates {
		if _, err := exec.LookPath(c[0]); err == nil {
			d.resolved = c
			return nil
		}
	}
	return ErrUnsupported
}

// Open starts the recorder.
func (d *CommandDevice) Open(ctx context.Context) (Stream, error) {
	if d.resolved == nil {
		if err := d.Init(ctx); err != nil {
			return nil, err
		}
	}

	dir, err := os.MkdirTemp("", "lingoquiz-rec-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	path := filepath.Join(dir, "clip.wav")

	args := append(append([]string(nil), d.resolved[1:]...), path)
	cmd := exec.Command(d.resolved[0], args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		os.RemoveAll(dir)
		return nil, classify(err, "")
	}

	s := &commandStream{cmd: cmd, dir: dir, path: path, started: time.Now(), done: make(chan error, 1)}
	go func() { s.done <- cmd.Wait() }()

	select {
	case err := <-s.done:
		os.RemoveAll(dir)
		if err == nil {
			return nil, ErrNoEncoding
		}
		return nil, classify(err, stderr.String())
	case <-time.After(startupGrace):
	case <-ctx.Done():
		s.Close()
		return nil, ctx.Err()
	}
	return s, nil
}

func classify(err error, stderr string) error {
	msg := strings.ToLower(stderr)
	switch {
	case strings.Contains(msg, "permission denied"), strings.Contains(msg, "audio open error"):
		return fmt.Errorf("%w: %s", ErrPermissionDenied, strings.TrimSpace(stderr))
	case strings.Contains(msg, "format"), strings.Contains(msg, "encoding"):
		return fmt.Errorf("%w: %s", ErrNoEncoding, strings.TrimSpace(stderr))
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return fmt.Errorf("recorder exited: %v: %s", err, strings.TrimSpace(stderr))
}

type commandStream struct {
	mu      sync.Mutex
	cmd     *exec.Cmd
	dir     string
	path    string
	started time.Time
	done    chan error
	closed  bool
	stopped bool
}

func (s *commandStream) Stop() (*Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.stopped {
		return nil, ErrNotRecording
	}
	s.stopped = true

	_ = s.cmd.Process.Signal(syscall.SIGINT)
	select {
	case <-s.done:
	case <-time.After(2 * time.Second):
		_ = s.cmd.Process.Kill()
		<-s.done
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read recording: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrNoEncoding
	}
	return &Clip{Data: data, MIME: "audio/wav", Duration: time.Since(s.started)}, nil
}

func (s *commandStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if !s.stopped {
		_ = s.cmd.Process.Kill()
		<-s.done
	}
	return os.RemoveAll(s.dir)
}

// players are tried in order when no command is configured.
var players = [][]string{
	{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"},
	{"mpv", "--no-video", "--really-quiet"},
}

// CommandPlayer plays audio through an external player that takes the URL
// as its last argument.
type CommandPlayer struct {
	Command []string
}

// NewCommandPlayer returns a player using command, or the first player found
// on PATH when command is empty.
func NewCommandPlayer(command string) *CommandPlayer {
	return &CommandPlayer{Command: strings.Fields(command)}
}

func (p *CommandPlayer) Play(ctx context.Context, url string, limit time.Duration) error {
	candidates := players
	if len(p.Command) > 0 {
		candidates = [][]string{p.Command}
	}
	var bin []string
	for _, c := range candidates {
		if _, err := exec.LookPath(c[0]); err == nil {
			bin = c
			break
		}
	}
	if bin == nil {
		return ErrUnsupported
	}

	if limit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, limit)
		defer cancel()
	}
	args := append(append([]string(nil), bin[1:]...), url)
	err := exec.CommandContext(ctx, bin[0], args...).Run()
	if ctx.Err() == context.DeadlineExceeded {
		// Reaching the listening limit is a normal end of playback.
		return nil
	}
	return err
}
