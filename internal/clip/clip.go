// Package clip loads short source recordings into memory for granular
// playback.
package clip

import (
	"errors"
	"fmt"
	"time"

	"github.com/gopxl/beep"
)

// Clip is an immutable mono PCM buffer in the range [-1, 1].
type Clip struct {
	ID         string
	Samples    []float64
	SampleRate int
}

// Duration returns the clip length in seconds.
func (c *Clip) Duration() float64 {
	if c.SampleRate <= 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.SampleRate)
}

// Format returns the beep format the clip streams in.
func (c *Clip) Format() beep.Format {
	return beep.Format{SampleRate: beep.SampleRate(c.SampleRate), NumChannels: 1, Precision: 2}
}

// Streamer returns a streamer over the clip starting at sample from, clamped
// to the clip. The mono signal is copied to both output channels.
func (c *Clip) Streamer(from int) beep.StreamSeeker {
	from = max(0, min(from, len(c.Samples)))
	return &pcmStreamer{samples: c.Samples, pos: from}
}

// SamplesAt converts a position in seconds to a sample index, clamped to the
// clip length.
func (c *Clip) SamplesAt(sec float64) int {
	n := int(sec * float64(c.SampleRate))
	if n < 0 {
		return 0
	}
	if n > len(c.Samples) {
		return len(c.Samples)
	}
	return n
}

// String implements fmt.Stringer for log fields.
func (c *Clip) String() string {
	d := time.Duration(c.Duration() * float64(time.Second))
	return fmt.Sprintf("%s (%s @ %dHz)", c.ID, d.Round(time.Millisecond), c.SampleRate)
}

// NewStreamer wraps raw mono samples as a beep streamer. The slice is not
// copied.
func NewStreamer(samples []float64) beep.StreamSeeker {
	return &pcmStreamer{samples: samples}
}

type pcmStreamer struct {
	samples []float64
	pos     int
}

func (s *pcmStreamer) Stream(buf [][2]float64) (int, bool) {
	if s.pos >= len(s.samples) {
		return 0, false
	}
	n := copyMono(buf, s.samples[s.pos:])
	s.pos += n
	return n, true
}

func (s *pcmStreamer) Err() error { return nil }

func (s *pcmStreamer) Len() int { return len(s.samples) }

func (s *pcmStreamer) Position() int { return s.pos }

func (s *pcmStreamer) Seek(p int) error {
	if p < 0 || p > len(s.samples) {
		return errors.New("clip: seek position out of range")
	}
	s.pos = p
	return nil
}

func copyMono(dst [][2]float64, src []float64) int {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	for i := 0; i < n; i++ {
		dst[i][0] = src[i]
		dst[i][1] = src[i]
	}
	return n
}
