// Package analysis provides a pass-through tap that exposes spectrum and
// waveform snapshots of whatever audio flows through it.
package analysis

import (
	"math"
	"math/cmplx"
	"sync"
	"sync/atomic"

	"github.com/gopxl/beep"
	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/floats"
)

// Config controls the snapshot transform.
type Config struct {
	FFTSize     int     // power of two
	Smoothing   float64 // [0, 1), weight of the previous spectrum
	MinDecibels float64 // maps to 0
	MaxDecibels float64 // maps to 255
}

// DefaultConfig returns a 1024-point transform with 0.8 smoothing over
// -90..-10 dB.
func DefaultConfig() Config {
	return Config{FFTSize: 1024, Smoothing: 0.8, MinDecibels: -90, MaxDecibels: -10}
}

// Tap records the most recent FFTSize mono samples of every streamer it
// wraps. Snapshots may be taken from any goroutine while audio is playing.
type Tap struct {
	cfg      Config
	detached atomic.Bool

	mu       sync.Mutex
	ring     []float64
	pos      int
	smoothed []float64
}

// New creates a Tap.
func New(cfg Config) *Tap {
	if cfg.FFTSize <= 0 {
		cfg.FFTSize = DefaultConfig().FFTSize
	}
	return &Tap{
		cfg:      cfg,
		ring:     make([]float64, cfg.FFTSize),
		smoothed: make([]float64, cfg.FFTSize/2),
	}
}

// Config returns the tap configuration.
func (t *Tap) Config() Config { return t.cfg }

// Wrap returns a streamer that yields exactly what s yields while copying
// the mono mix into the tap.
func (t *Tap) Wrap(s beep.Streamer) beep.Streamer {
	return &tapStreamer{tap: t, s: s}
}

// Detach stops every wrapped streamer from feeding the tap. Audio keeps
// flowing.
func (t *Tap) Detach() { t.detached.Store(true) }

// Detached reports whether Detach was called.
func (t *Tap) Detached() bool { return t.detached.Load() }

// Reset clears the sample history and the smoothed spectrum.
func (t *Tap) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.ring)
	clear(t.smoothed)
	t.pos = 0
}

func (t *Tap) write(buf [][2]float64) {
	if t.detached.Load() {
		return
	}
	t.mu.Lock()
	for _, frame := range buf {
		t.ring[t.pos] = (frame[0] + frame[1]) / 2
		t.pos = (t.pos + 1) % len(t.ring)
	}
	t.mu.Unlock()
}

// snapshot returns the history oldest first. Caller holds mu.
func (t *Tap) snapshot() []float64 {
	out := make([]float64, len(t.ring))
	n := copy(out, t.ring[t.pos:])
	copy(out[n:], t.ring[:t.pos])
	return out
}

// FrequencyData returns FFTSize/2 magnitude bins scaled to 0-255 between
// MinDecibels and MaxDecibels. Each call blends with the previous call's
// spectrum by Smoothing.
func (t *Tap) FrequencyData() []uint8 {
	t.mu.Lock()
	defer t.mu.Unlock()

	x := t.snapshot()
	window.Apply(x, window.Blackman)
	spectrum := fft.FFTReal(x)

	n := float64(len(x))
	tau := t.cfg.Smoothing
	span := t.cfg.MaxDecibels - t.cfg.MinDecibels
	out := make([]uint8, len(t.smoothed))
	for k := range t.smoothed {
		mag := cmplx.Abs(spectrum[k]) / n
		t.smoothed[k] = tau*t.smoothed[k] + (1-tau)*mag
		if t.smoothed[k] <= 0 {
			continue
		}
		db := 20 * math.Log10(t.smoothed[k])
		out[k] = toByte(255 * (db - t.cfg.MinDecibels) / span)
	}
	return out
}

// TimeData returns the FFTSize most recent samples as 128*(1+x).
func (t *Tap) TimeData() []uint8 {
	t.mu.Lock()
	defer t.mu.Unlock()

	x := t.snapshot()
	out := make([]uint8, len(x))
	for i, v := range x {
		out[i] = toByte(128 * (1 + v))
	}
	return out
}

// Level returns the RMS amplitude of the current history.
func (t *Tap) Level() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return math.Sqrt(floats.Dot(t.ring, t.ring) / float64(len(t.ring)))
}

func toByte(v float64) uint8 {
	switch {
	case v <= 0 || math.IsNaN(v):
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}

type tapStreamer struct {
	tap *Tap
	s   beep.Streamer
}

func (ts *tapStreamer) Stream(samples [][2]float64) (int, bool) {
	n, ok := ts.s.Stream(samples)
	if n > 0 {
		ts.tap.write(samples[:n])
	}
	return n, ok
}

func (ts *tapStreamer) Err() error { return ts.s.Err() }
