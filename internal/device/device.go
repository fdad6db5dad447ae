// Package device abstracts the host audio output. Every backend mixes the
// streamers it is given into one stereo output at a fixed sample rate.
package device

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gopxl/beep"
	"github.com/rs/zerolog"
)

// Device is an open audio output.
type Device interface {
	SampleRate() beep.SampleRate
	// Play adds s to the output mix and returns immediately.
	Play(s beep.Streamer) error
	// Resume wakes a suspended output.
	Resume() error
	Close() error
	Closed() bool
}

// ErrUnavailable matches every *UnavailableError via errors.Is.
var ErrUnavailable = errors.New("audio device unavailable")

// UnavailableError reports an output that could not be opened or is no
// longer usable.
type UnavailableError struct {
	Backend string
	Err     error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s audio device unavailable: %v", e.Backend, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

func (e *UnavailableError) Is(target error) bool { return target == ErrUnavailable }

var errClosed = errors.New("device closed")

// Config selects and sizes a backend.
type Config struct {
	Backend    string // "speaker", "portaudio" or "null"
	SampleRate int
	BufferMs   int
}

// Open opens the configured backend.
func Open(cfg Config, logger zerolog.Logger) (Device, error) {
	if cfg.SampleRate <= 0 {
		return nil, &UnavailableError{Backend: cfg.Backend, Err: fmt.Errorf("invalid sample rate %d", cfg.SampleRate)}
	}
	if cfg.BufferMs <= 0 {
		cfg.BufferMs = 100
	}
	logger = logger.With().Str("component", "device").Str("backend", cfg.Backend).Logger()

	switch cfg.Backend {
	case "speaker":
		return openSpeaker(cfg, logger)
	case "portaudio":
		return openPortAudio(cfg, logger)
	case "null":
		return NewNull(beep.SampleRate(cfg.SampleRate), true, logger), nil
	default:
		return nil, &UnavailableError{Backend: cfg.Backend, Err: errors.New("unknown backend")}
	}
}

// mixerSink is the shared mixing state for backends that pull audio
// themselves.
type mixerSink struct {
	backend string

	mu     sync.Mutex
	mixer  beep.Mixer
	closed bool
}

func (m *mixerSink) play(s beep.Streamer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return &UnavailableError{Backend: m.backend, Err: errClosed}
	}
	m.mixer.Add(s)
	return nil
}

// fill overwrites buf with the next len(buf) frames of the mix.
func (m *mixerSink) fill(buf [][2]float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(buf)
	if m.closed || m.mixer.Len() == 0 {
		return
	}
	m.mixer.Stream(buf)
}

func (m *mixerSink) check() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return &UnavailableError{Backend: m.backend, Err: errClosed}
	}
	return nil
}

// markClosed reports whether this call closed the sink.
func (m *mixerSink) markClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false
	}
	m.closed = true
	m.mixer.Clear()
	return true
}

func (m *mixerSink) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
