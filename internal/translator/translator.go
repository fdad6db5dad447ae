// Package translator runs one utterance at a time: it plays a granular
// rendition of a clip while sampling its spectrum, then classifies what it
// heard.
package translator

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Danondso/squeak/internal/analysis"
	"github.com/Danondso/squeak/internal/clip"
	"github.com/Danondso/squeak/internal/device"
	"github.com/Danondso/squeak/internal/features"
	"github.com/Danondso/squeak/internal/grain"
	"github.com/Danondso/squeak/internal/intent"
)

// Config holds timing and analysis settings.
type Config struct {
	ThinkingDelay   time.Duration
	SafetyMargin    time.Duration
	SampleInterval  time.Duration
	Analysis        analysis.Config
	AnalysisEnabled bool
	Familiarity     float64
}

// DefaultConfig returns the stock timings.
func DefaultConfig() Config {
	return Config{
		ThinkingDelay:   250 * time.Millisecond,
		SafetyMargin:    500 * time.Millisecond,
		SampleInterval:  50 * time.Millisecond,
		Analysis:        analysis.DefaultConfig(),
		AnalysisEnabled: true,
		Familiarity:     1,
	}
}

// Opener opens the output device. It is called lazily and again whenever
// the previous device has been closed.
type Opener func() (device.Device, error)

// Options wires a Translator to its collaborators.
type Options struct {
	Config     Config
	Open       Opener
	Loader     *clip.Loader
	Engine     *grain.Engine
	Classifier *intent.Classifier
	Rand       *rand.Rand
	Logger     zerolog.Logger
}

// Request is one utterance.
type Request struct {
	Input  string
	Clip   string     // clip reference understood by clip.Loader
	Hint   grain.Hint // used when Params is nil
	Params *grain.Params
}

// Result is the outcome of one utterance.
type Result struct {
	ID           uuid.UUID
	Input        string
	Clip         string
	Duration     float64 // seconds, as scheduled
	Timeline     []grain.TimelineEntry
	Reverb       bool
	Intent       *intent.Result // nil when analysis was off
	Phrase       string
	Onomatopoeia string
	// Fallback is set when analysis produced no samples and Intent was
	// classified from a stand-in feature vector.
	Fallback bool
	// Analyzed is set when Intent came from real measurements.
	Analyzed bool
}

// fallbackFeatures stands in for measurements when sampling yields nothing.
var fallbackFeatures = features.Aggregate{RMSAvg: 0.25, RMSMax: 0.25, CentroidAvg: 1500, CentroidMax: 1500}

// Translator coordinates synthesis and analysis. Only one utterance runs at
// a time.
type Translator struct {
	cfg        Config
	open       Opener
	loader     *clip.Loader
	engine     *grain.Engine
	classifier *intent.Classifier
	agg        *features.Aggregator
	rng        *rand.Rand // only used inside Translate
	logger     zerolog.Logger

	analysisEnabled atomic.Bool
	familiarity     atomic.Uint64 // float64 bits

	mu       sync.Mutex
	state    State
	closed   bool
	closing  chan struct{}
	dev      device.Device
	tap      *analysis.Tap
	playback *grain.Playback
	onState  func(State)
}

// New creates a Translator. Missing collaborators get defaults; Open and
// Loader are required.
func New(opts Options) *Translator {
	if opts.Engine == nil {
		opts.Engine = grain.NewEngine(grain.DefaultEngineConfig(), opts.Logger)
	}
	if opts.Classifier == nil {
		opts.Classifier = intent.NewClassifier(intent.DefaultThresholds())
	}
	if opts.Config.SampleInterval <= 0 {
		opts.Config.SampleInterval = DefaultConfig().SampleInterval
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	t := &Translator{
		cfg:        opts.Config,
		open:       opts.Open,
		loader:     opts.Loader,
		engine:     opts.Engine,
		classifier: opts.Classifier,
		agg:        features.NewAggregator(),
		rng:        opts.Rand,
		logger:     opts.Logger.With().Str("component", "translator").Logger(),
		closing:    make(chan struct{}),
	}
	t.analysisEnabled.Store(opts.Config.AnalysisEnabled)
	t.SetFamiliarity(opts.Config.Familiarity)
	return t
}

// Classifier returns the classifier so thresholds can be tuned at runtime.
func (t *Translator) Classifier() *intent.Classifier { return t.classifier }

// SetAnalysisEnabled turns sampling on or off. Turning it off mid-utterance
// stops sampling at the next tick; playback continues.
func (t *Translator) SetAnalysisEnabled(on bool) { t.analysisEnabled.Store(on) }

// AnalysisEnabled reports whether sampling is on.
func (t *Translator) AnalysisEnabled() bool { return t.analysisEnabled.Load() }

// SetFamiliarity sets the factor applied to hint-derived parameters.
func (t *Translator) SetFamiliarity(f float64) {
	t.familiarity.Store(math.Float64bits(f))
}

// State returns the current lifecycle state.
func (t *Translator) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// OnStateChange registers fn to be called after every transition. fn runs
// on the translating goroutine and must not block.
func (t *Translator) OnStateChange(fn func(State)) {
	t.mu.Lock()
	t.onState = fn
	t.mu.Unlock()
}

// Level returns the RMS level of the most recent output, for meters.
func (t *Translator) Level() float64 {
	t.mu.Lock()
	tap := t.tap
	t.mu.Unlock()
	if tap == nil {
		return 0
	}
	return tap.Level()
}

func (t *Translator) setState(s State) {
	t.mu.Lock()
	t.state = s
	fn := t.onState
	t.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}

// Translate plays one utterance and returns its result. It returns ErrBusy
// without side effects when another utterance is in flight. On every return
// the translator is Idle again.
func (t *Translator) Translate(ctx context.Context, req Request) (*Result, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, ErrClosed
	}
	if t.state != StateIdle {
		t.mu.Unlock()
		return nil, ErrBusy
	}
	t.state = StateThinking
	fn := t.onState
	t.mu.Unlock()
	if fn != nil {
		fn(StateThinking)
	}
	defer t.reset()

	log := t.logger.With().Str("clip", req.Clip).Logger()

	if err := t.wait(ctx, t.cfg.ThinkingDelay); err != nil {
		return nil, err
	}

	dev, tap, err := t.readyDevice()
	if err != nil {
		return nil, err
	}

	c, err := t.loader.Load(ctx, req.Clip)
	if err != nil {
		return nil, err
	}

	params := t.params(req)
	plan, err := grain.Schedule(c, params, t.rng)
	if err != nil {
		return nil, err
	}

	t.agg.Clear()
	tap.Reset()
	analyzing := t.analysisEnabled.Load()
	t.setState(StateSpeaking)

	pb, err := t.engine.Start(ctx, dev, c, plan, tap.Wrap)
	if err != nil {
		if t.isClosed() {
			return nil, ErrClosed
		}
		if errors.Is(err, device.ErrUnavailable) {
			t.dropDevice(dev, err)
		}
		return nil, err
	}
	t.mu.Lock()
	t.playback = pb
	t.mu.Unlock()

	s := t.startSampling(tap, int(dev.SampleRate()), analyzing)
	defer s.stop()

	log.Debug().Int("grains", len(plan.Grains)).Float64("duration", pb.Duration()).Bool("reverb", plan.Reverb).Msg("utterance started")

	if err := t.wait(ctx, seconds(pb.Duration())+t.cfg.SafetyMargin); err != nil {
		pb.Stop()
		return nil, err
	}
	s.stop()
	t.setState(StateFinalizing)

	res := &Result{
		ID:       uuid.New(),
		Input:    req.Input,
		Clip:     req.Clip,
		Duration: pb.Duration(),
		Timeline: pb.Timeline(),
		Reverb:   plan.Reverb,
	}
	if analyzing {
		agg := t.agg.Aggregate()
		if agg.Empty() {
			log.Warn().Msg("analysis produced no samples, using fallback features")
			agg = fallbackFeatures
			res.Fallback = true
		}
		ir := t.classifier.Classify(agg)
		res.Intent = &ir
		res.Analyzed = !res.Fallback
		res.Phrase = intent.Phrase(ir.Intent, t.rng)
		res.Onomatopoeia = intent.Onomatopoeia(ir.Intent, t.rng)
		log.Info().
			Str("intent", ir.Intent.String()).
			Float64("confidence", ir.Confidence).
			Int("samples", agg.SampleCount).
			Bool("fallback", res.Fallback).
			Msg("utterance classified")
	}
	return res, nil
}

// wait sleeps for d unless ctx is cancelled or the translator is closed.
func (t *Translator) wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-t.closing:
		return ErrClosed
	}
}

func (t *Translator) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *Translator) reset() {
	t.agg.Clear()
	t.mu.Lock()
	t.playback = nil
	t.mu.Unlock()
	t.setState(StateIdle)
}

func (t *Translator) params(req Request) grain.Params {
	if req.Params != nil {
		return *req.Params
	}
	f := math.Float64frombits(t.familiarity.Load())
	return grain.ParamsFor(req.Hint, t.rng).Familiarize(f)
}

// ensureDevice opens the device on first use or after it was closed. A new
// device gets a new tap.
func (t *Translator) ensureDevice() (device.Device, *analysis.Tap, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, nil, ErrClosed
	}
	if t.dev == nil || t.dev.Closed() {
		dev, err := t.open()
		if err != nil {
			if !errors.Is(err, device.ErrUnavailable) {
				err = &device.UnavailableError{Backend: "unknown", Err: err}
			}
			return nil, nil, err
		}
		if t.tap != nil {
			t.tap.Detach()
		}
		t.dev = dev
		t.tap = analysis.New(t.cfg.Analysis)
		t.logger.Debug().Int("sample_rate", int(dev.SampleRate())).Msg("audio device opened")
	}
	return t.dev, t.tap, nil
}

// readyDevice returns a device that accepted Resume. A device that fails
// Resume without reporting itself closed is dropped and replaced once.
func (t *Translator) readyDevice() (device.Device, *analysis.Tap, error) {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		var dev device.Device
		var tap *analysis.Tap
		dev, tap, err = t.ensureDevice()
		if err != nil {
			return nil, nil, err
		}
		if err = dev.Resume(); err == nil {
			return dev, tap, nil
		}
		t.dropDevice(dev, err)
	}
	return nil, nil, err
}

// dropDevice closes dev and forgets it so the next ensureDevice opens a new
// one. It does nothing if dev was already replaced.
func (t *Translator) dropDevice(dev device.Device, cause error) {
	t.mu.Lock()
	if t.dev != dev {
		t.mu.Unlock()
		return
	}
	tap := t.tap
	t.dev, t.tap = nil, nil
	t.mu.Unlock()

	if tap != nil {
		tap.Detach()
	}
	if err := dev.Close(); err != nil {
		t.logger.Debug().Err(err).Msg("closing dead audio device")
	}
	t.logger.Warn().Err(cause).Msg("audio device dropped")
}

// Close stops any utterance in flight and releases the device. Later calls
// to Translate return ErrClosed.
func (t *Translator) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	close(t.closing)
	pb, dev, tap := t.playback, t.dev, t.tap
	t.mu.Unlock()

	if pb != nil {
		pb.Stop()
	}
	if tap != nil {
		tap.Detach()
	}
	if dev != nil {
		return dev.Close()
	}
	return nil
}

type sampler struct {
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// stop ends the loop and waits for it. Safe to call more than once.
func (s *sampler) stop() {
	s.stopOnce.Do(func() { close(s.quit) })
	<-s.done
}

func (t *Translator) startSampling(tap *analysis.Tap, sampleRate int, enabled bool) *sampler {
	s := &sampler{quit: make(chan struct{}), done: make(chan struct{})}
	if !enabled {
		close(s.done)
		return s
	}
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(t.cfg.SampleInterval)
		defer ticker.Stop()
		for {
			select {
			case <-s.quit:
				return
			case <-ticker.C:
				if !t.analysisEnabled.Load() {
					return
				}
				t.agg.Add(features.Extract(tap.FrequencyData(), tap.TimeData(), sampleRate))
			}
		}
	}()
	return s
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
