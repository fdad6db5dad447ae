package grain

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/mjibson/go-dsp/fft"
	"github.com/rs/zerolog"

	"github.com/Danondso/squeak/internal/clip"
	"github.com/Danondso/squeak/internal/device"
)

// EngineConfig holds rendering settings shared by every utterance.
type EngineConfig struct {
	Quality   int     // beep resampling quality, 1-64
	FadeSec   float64 // linear fade at both ends of a grain
	Sustain   float64 // grain gain between the fades
	Dry       float64
	Wet       float64
	ReverbSec float64 // impulse response length
}

// DefaultEngineConfig returns the stock settings.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{Quality: 4, FadeSec: 0.01, Sustain: 0.7, Dry: 0.7, Wet: 0.3, ReverbSec: 0.5}
}

// Engine renders plans and plays them on a device.
type Engine struct {
	cfg    EngineConfig
	logger zerolog.Logger

	mu  sync.Mutex
	irs map[beep.SampleRate][]float64
}

// NewEngine creates an Engine.
func NewEngine(cfg EngineConfig, logger zerolog.Logger) *Engine {
	if cfg.Quality < 1 || cfg.Quality > 64 {
		cfg.Quality = DefaultEngineConfig().Quality
	}
	return &Engine{
		cfg:    cfg,
		logger: logger.With().Str("component", "grain").Logger(),
		irs:    make(map[beep.SampleRate][]float64),
	}
}

// Start renders every grain of plan from c, mixes them at their scheduled
// offsets and plays the mix on dev. wrap, if non-nil, is applied to the mix
// before it reaches the device. Start returns once playback has begun.
func (e *Engine) Start(ctx context.Context, dev device.Device, c *clip.Clip, plan Plan, wrap func(beep.Streamer) beep.Streamer) (*Playback, error) {
	if dev == nil {
		return nil, &device.UnavailableError{Backend: "none", Err: errors.New("no device")}
	}
	if dev.Closed() {
		return nil, &device.UnavailableError{Backend: "unknown", Err: errors.New("device closed")}
	}
	if c == nil || len(c.Samples) == 0 {
		return nil, errors.New("empty source clip")
	}

	sr := dev.SampleRate()
	timeline := plan.Timeline()
	var ir []float64
	if plan.Reverb {
		ir = e.impulseResponse(sr)
	}

	var voices []beep.Streamer
	for i, g := range plan.Grains {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		samples, err := e.renderGrain(c, g, sr, ir)
		if err != nil {
			e.logger.Warn().Err(err).Int("grain", g.Index).Msg("grain skipped")
			timeline[i].Skipped = true
			continue
		}
		voices = append(voices, beep.Seq(beep.Silence(sr.N(seconds(g.Start))), clip.NewStreamer(samples)))
		e.logger.Debug().
			Int("grain", g.Index).
			Float64("start", g.Start).
			Float64("offset", g.Offset).
			Float64("duration", g.Duration).
			Float64("rate", g.Rate).
			Msg("grain scheduled")
	}

	p := &Playback{
		duration: plan.Duration(),
		timeline: timeline,
		done:     make(chan struct{}),
	}

	var out beep.Streamer = &stoppable{s: beep.Mix(voices...), stopped: &p.stopped}
	if wrap != nil {
		out = wrap(out)
	}
	if err := dev.Play(beep.Seq(out, beep.Callback(p.finish))); err != nil {
		return nil, err
	}
	return p, nil
}

// renderGrain returns the grain's mono samples at the device rate.
func (e *Engine) renderGrain(c *clip.Clip, g Grain, sr beep.SampleRate, ir []float64) (out []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("render panic: %v", r)
		}
	}()

	if g.Rate <= 0 || math.IsNaN(g.Rate) {
		return nil, fmt.Errorf("invalid playback rate %g", g.Rate)
	}
	frames := sr.N(seconds(g.Duration))
	if frames <= 0 {
		return nil, fmt.Errorf("grain shorter than one sample")
	}

	ratio := g.Rate * float64(c.SampleRate) / float64(sr)
	src := beep.ResampleRatio(e.cfg.Quality, ratio, c.Streamer(c.SamplesAt(g.Offset)))
	out = drainMono(beep.Take(frames, src), frames)
	applyEnvelope(out, sr.N(seconds(e.cfg.FadeSec)), e.cfg.Sustain)

	if ir != nil {
		out = e.reverb(out, ir)
	}
	return out, nil
}

func drainMono(s beep.Streamer, hint int) []float64 {
	out := make([]float64, 0, hint)
	buf := make([][2]float64, 512)
	for {
		n, ok := s.Stream(buf)
		for _, f := range buf[:n] {
			out = append(out, (f[0]+f[1])/2)
		}
		if !ok {
			return out
		}
	}
}

// applyEnvelope ramps linearly from 0 to sustain over fade samples, holds,
// and ramps back to 0 over the final fade samples.
func applyEnvelope(x []float64, fade int, sustain float64) {
	if fade > len(x)/2 {
		fade = len(x) / 2
	}
	for i := range x {
		gain := sustain
		switch {
		case fade > 0 && i < fade:
			gain = sustain * float64(i) / float64(fade)
		case fade > 0 && i >= len(x)-fade:
			gain = sustain * float64(len(x)-1-i) / float64(fade)
		}
		x[i] *= gain
	}
}

// reverb returns dry*x + wet*(x convolved with ir). The result is longer
// than x by the reverb tail.
func (e *Engine) reverb(x, ir []float64) []float64 {
	n := len(x) + len(ir) - 1
	size := 1
	for size < n {
		size <<= 1
	}
	a := make([]complex128, size)
	b := make([]complex128, size)
	for i, v := range x {
		a[i] = complex(v, 0)
	}
	for i, v := range ir {
		b[i] = complex(v, 0)
	}
	wet := fft.Convolve(a, b)

	out := make([]float64, n)
	for i := range out {
		out[i] = e.cfg.Wet * real(wet[i])
		if i < len(x) {
			out[i] += e.cfg.Dry * x[i]
		}
	}
	return out
}

// impulseResponse returns a decaying noise burst for sr, generated once per
// rate.
func (e *Engine) impulseResponse(sr beep.SampleRate) []float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ir, ok := e.irs[sr]; ok {
		return ir
	}
	length := sr.N(seconds(e.cfg.ReverbSec))
	if length < 1 {
		length = 1
	}
	rng := rand.New(rand.NewPCG(uint64(sr), 0x1f))
	ir := make([]float64, length)
	for i := range ir {
		decay := math.Pow(1-float64(i)/float64(length), 2)
		ir[i] = (rng.Float64()*2 - 1) * decay * 0.3
	}
	e.irs[sr] = ir
	return ir
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Playback is an utterance that has been handed to the device.
type Playback struct {
	duration float64
	timeline []TimelineEntry
	stopped  atomic.Bool
	done     chan struct{}
	doneOnce sync.Once
}

// Duration returns the scheduled length in seconds, from the first grain's
// start to the last grain's end. Reverb tails are not included.
func (p *Playback) Duration() float64 { return p.duration }

// Timeline returns a copy of the grain timeline.
func (p *Playback) Timeline() []TimelineEntry {
	out := make([]TimelineEntry, len(p.timeline))
	copy(out, p.timeline)
	return out
}

// Done is closed once the device has played the whole mix or Stop was
// called.
func (p *Playback) Done() <-chan struct{} { return p.done }

// Stop silences any grains that have not finished. It is safe to call more
// than once.
func (p *Playback) Stop() {
	p.stopped.Store(true)
	p.finish()
}

func (p *Playback) finish() {
	p.doneOnce.Do(func() { close(p.done) })
}

type stoppable struct {
	s       beep.Streamer
	stopped *atomic.Bool
}

func (s *stoppable) Stream(buf [][2]float64) (int, bool) {
	if s.stopped.Load() {
		return 0, false
	}
	return s.s.Stream(buf)
}

func (s *stoppable) Err() error { return s.s.Err() }
