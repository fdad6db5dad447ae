package main

import (
	"io"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Danondso/squeak/internal/analysis"
	"github.com/Danondso/squeak/internal/clip"
	"github.com/Danondso/squeak/internal/config"
	"github.com/Danondso/squeak/internal/device"
	"github.com/Danondso/squeak/internal/grain"
	"github.com/Danondso/squeak/internal/intent"
	"github.com/Danondso/squeak/internal/translator"
)

// newLogger returns a logger writing to w, or a no-op logger when debug is
// off.
func newLogger(w io.Writer, debug bool) zerolog.Logger {
	if !debug {
		return zerolog.Nop()
	}
	return zerolog.New(w).Level(zerolog.DebugLevel).With().Timestamp().Logger()
}

// consoleLogger is the stderr logger used outside the TUI.
func consoleLogger(debug bool) zerolog.Logger {
	return newLogger(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}, debug)
}

func newRand() *rand.Rand {
	seed := uint64(time.Now().UnixNano())
	return rand.New(rand.NewPCG(seed, seed>>17))
}

func thresholds(cfg *config.Config) intent.Thresholds {
	c := cfg.Classifier
	return intent.Thresholds{
		CentroidLow:  c.CentroidLow,
		CentroidHigh: c.CentroidHigh,
		RMSLow:       c.RMSLow,
		RMSHigh:      c.RMSHigh,
		ZCRHigh:      c.ZCRHigh,
	}
}

func engineConfig(cfg *config.Config) grain.EngineConfig {
	s := cfg.Synthesis
	return grain.EngineConfig{
		Quality:   s.ResampleQuality,
		FadeSec:   float64(s.FadeMs) / 1000,
		Sustain:   s.Sustain,
		Dry:       s.Dry,
		Wet:       s.Wet,
		ReverbSec: s.ReverbSec,
	}
}

func translatorConfig(cfg *config.Config) translator.Config {
	a := cfg.Analysis
	return translator.Config{
		ThinkingDelay:  cfg.ThinkingDelay(),
		SafetyMargin:   cfg.SafetyMargin(),
		SampleInterval: cfg.SampleInterval(),
		Analysis: analysis.Config{
			FFTSize:     a.FFTSize,
			Smoothing:   a.Smoothing,
			MinDecibels: a.MinDecibels,
			MaxDecibels: a.MaxDecibels,
		},
		AnalysisEnabled: a.Enabled,
		Familiarity:     cfg.Familiarity,
	}
}

func newTranslator(cfg *config.Config, logger zerolog.Logger) *translator.Translator {
	devCfg := device.Config{
		Backend:    cfg.Audio.Backend,
		SampleRate: cfg.Audio.SampleRate,
		BufferMs:   cfg.Audio.BufferMs,
	}
	return translator.New(translator.Options{
		Config:     translatorConfig(cfg),
		Open:       func() (device.Device, error) { return device.Open(devCfg, logger) },
		Loader:     clip.NewLoader(cfg.Audio.SampleRate, logger),
		Engine:     grain.NewEngine(engineConfig(cfg), logger),
		Classifier: intent.NewClassifier(thresholds(cfg)),
		Rand:       newRand(),
		Logger:     logger,
	})
}

// applyReload pushes the runtime-adjustable settings of a reloaded config
// into a running translator.
func applyReload(tr *translator.Translator, cfg *config.Config, logger zerolog.Logger) {
	tr.Classifier().SetThresholds(thresholds(cfg))
	tr.SetAnalysisEnabled(cfg.Analysis.Enabled)
	tr.SetFamiliarity(cfg.Familiarity)
	logger.Debug().
		Bool("analysis", cfg.Analysis.Enabled).
		Float64("familiarity", cfg.Familiarity).
		Msg("runtime settings updated")
}

// clipRef turns a bare builtin name into a loader reference.
func clipRef(name string) string {
	for _, b := range clip.BuiltinNames() {
		if strings.EqualFold(name, b) {
			return clip.BuiltinPrefix + b
		}
	}
	return name
}

func loadConfig(path, backend string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if backend != "" {
		cfg.Audio.Backend = backend
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
