package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// AudioConfig holds playback device settings.
type AudioConfig struct {
	Backend    string `toml:"backend"` // "speaker", "portaudio" or "null"
	SampleRate int    `toml:"sample_rate"`
	BufferMs   int    `toml:"buffer_ms"`
}

// SynthesisConfig holds grain rendering settings shared by every utterance.
type SynthesisConfig struct {
	ResampleQuality int     `toml:"resample_quality"`
	FadeMs          int     `toml:"fade_ms"`
	Sustain         float64 `toml:"sustain"`
	Dry             float64 `toml:"dry"`
	Wet             float64 `toml:"wet"`
	ReverbSec       float64 `toml:"reverb_sec"`
}

// AnalysisConfig holds analysis tap and sampling loop settings.
type AnalysisConfig struct {
	Enabled     bool    `toml:"enabled"`
	FFTSize     int     `toml:"fft_size"`
	Smoothing   float64 `toml:"smoothing"`
	MinDecibels float64 `toml:"min_db"`
	MaxDecibels float64 `toml:"max_db"`
	IntervalMs  int     `toml:"interval_ms"`
}

// ClassifierConfig holds the intent classifier thresholds.
type ClassifierConfig struct {
	CentroidLow  float64 `toml:"centroid_low"`
	CentroidHigh float64 `toml:"centroid_high"`
	RMSLow       float64 `toml:"rms_low"`
	RMSHigh      float64 `toml:"rms_high"`
	ZCRHigh      float64 `toml:"zcr_high"`
}

// TimingConfig holds the orchestrator delays.
type TimingConfig struct {
	ThinkingMs     int `toml:"thinking_ms"`
	SafetyMarginMs int `toml:"safety_margin_ms"`
}

// ReplyConfig is one canned reply: the clip it plays and the caption shown
// next to the translation.
type ReplyConfig struct {
	ID      int      `toml:"id"`
	Clip    string   `toml:"clip"`
	Caption string   `toml:"caption"`
	Hint    string   `toml:"hint"`
	Tags    []string `toml:"tags"`
}

// CustomTheme is a user-defined TUI palette. Colors are hex strings.
type CustomTheme struct {
	Name       string `toml:"name"`
	Primary    string `toml:"primary"`
	Secondary  string `toml:"secondary"`
	Accent     string `toml:"accent"`
	Error      string `toml:"error"`
	Success    string `toml:"success"`
	Warning    string `toml:"warning"`
	Background string `toml:"background"`
	Text       string `toml:"text"`
	Dimmed     string `toml:"dimmed"`
	Separator  string `toml:"separator"`
}

// Config is the top-level configuration.
type Config struct {
	Theme        string           `toml:"theme"`
	Familiarity  float64          `toml:"familiarity"`
	Audio        AudioConfig      `toml:"audio"`
	Synthesis    SynthesisConfig  `toml:"synthesis"`
	Analysis     AnalysisConfig   `toml:"analysis"`
	Classifier   ClassifierConfig `toml:"classifier"`
	Timing       TimingConfig     `toml:"timing"`
	Replies      []ReplyConfig    `toml:"reply"`
	CustomThemes []CustomTheme    `toml:"custom_theme,omitempty"`
}

// Default returns a Config populated with all default values.
func Default() *Config {
	return &Config{
		Theme:       "synthwave",
		Familiarity: 0.5,
		Audio: AudioConfig{
			Backend:    "speaker",
			SampleRate: 44100,
			BufferMs:   100,
		},
		Synthesis: SynthesisConfig{
			ResampleQuality: 4,
			FadeMs:          10,
			Sustain:         0.7,
			Dry:             0.7,
			Wet:             0.3,
			ReverbSec:       0.5,
		},
		Analysis: AnalysisConfig{
			Enabled:     true,
			FFTSize:     1024,
			Smoothing:   0.8,
			MinDecibels: -90,
			MaxDecibels: -10,
			IntervalMs:  50,
		},
		Classifier: ClassifierConfig{
			CentroidLow:  800,
			CentroidHigh: 2500,
			RMSLow:       0.1,
			RMSHigh:      0.4,
			ZCRHigh:      0.15,
		},
		Timing: TimingConfig{
			ThinkingMs:     250,
			SafetyMarginMs: 500,
		},
		Replies: DefaultReplies(),
	}
}

// DefaultReplies returns the builtin reply table. Every entry plays a
// procedurally generated clip so the app works without audio assets.
func DefaultReplies() []ReplyConfig {
	return []ReplyConfig{
		{
			ID:      1,
			Clip:    "builtin:hungry",
			Caption: "So hungry... is there an apple somewhere?",
			Hint:    "hungry",
			Tags:    []string{"hungry", "food", "eat", "apple", "snack", "dinner"},
		},
		{
			ID:      2,
			Clip:    "builtin:playful",
			Caption: "Let's play! I want to go for a walk with you!",
			Hint:    "playful",
			Tags:    []string{"play", "fun", "walk", "game", "run"},
		},
		{
			ID:      3,
			Clip:    "builtin:greeting",
			Caption: "Hello! I'm feeling great today!",
			Hint:    "greeting",
			Tags:    []string{"hello", "hi", "hey", "morning", "nice to meet"},
		},
	}
}

// ThinkingDelay returns the cosmetic pause before synthesis starts.
func (c *Config) ThinkingDelay() time.Duration {
	return time.Duration(c.Timing.ThinkingMs) * time.Millisecond
}

// SafetyMargin returns the time added to the engine-reported duration before
// an utterance is considered finished.
func (c *Config) SafetyMargin() time.Duration {
	return time.Duration(c.Timing.SafetyMarginMs) * time.Millisecond
}

// SampleInterval returns the cadence of the feature sampling loop.
func (c *Config) SampleInterval() time.Duration {
	return time.Duration(c.Analysis.IntervalMs) * time.Millisecond
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	switch c.Audio.Backend {
	case "speaker", "portaudio", "null":
	default:
		return fmt.Errorf("unknown audio backend: %s", c.Audio.Backend)
	}
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio sample_rate must be positive, got %d", c.Audio.SampleRate)
	}
	if n := c.Analysis.FFTSize; n < 32 || n&(n-1) != 0 {
		return fmt.Errorf("analysis fft_size must be a power of two >= 32, got %d", n)
	}
	if c.Analysis.Smoothing < 0 || c.Analysis.Smoothing >= 1 {
		return fmt.Errorf("analysis smoothing must be in [0, 1), got %g", c.Analysis.Smoothing)
	}
	if c.Analysis.MinDecibels >= c.Analysis.MaxDecibels {
		return fmt.Errorf("analysis min_db (%g) must be below max_db (%g)", c.Analysis.MinDecibels, c.Analysis.MaxDecibels)
	}
	if c.Analysis.IntervalMs <= 0 {
		return fmt.Errorf("analysis interval_ms must be positive, got %d", c.Analysis.IntervalMs)
	}
	if c.Classifier.CentroidLow > c.Classifier.CentroidHigh {
		return fmt.Errorf("classifier centroid_low must not exceed centroid_high")
	}
	if c.Classifier.RMSLow > c.Classifier.RMSHigh {
		return fmt.Errorf("classifier rms_low must not exceed rms_high")
	}
	if c.Familiarity < 0 || c.Familiarity > 1 {
		return fmt.Errorf("familiarity must be in [0, 1], got %g", c.Familiarity)
	}
	if q := c.Synthesis.ResampleQuality; q < 1 || q > 64 {
		return fmt.Errorf("synthesis resample_quality must be in [1, 64], got %d", q)
	}
	if len(c.Replies) == 0 {
		return errors.New("at least one reply is required")
	}
	return nil
}

// DefaultPath returns the default config file path (~/.config/squeak/config.toml).
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "squeak", "config.toml")
}

// Save writes the config as TOML to the given path, creating parent
// directories if needed. The write is atomic: data is written to a
// temporary file and renamed into place so a crash mid-write cannot
// corrupt the existing config.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".squeak-config-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if err := toml.NewEncoder(tmp).Encode(cfg); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}

// Load reads the TOML config from path. If the file does not exist,
// it returns the default config without error. A file that declares its own
// [[reply]] tables replaces the builtin replies entirely.
func Load(path string) (*Config, error) {
	cfg := Default()

	_, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	cfg.Replies = nil
	_, err = toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if len(cfg.Replies) == 0 {
		cfg.Replies = DefaultReplies()
	}

	return cfg, nil
}
