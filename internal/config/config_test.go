package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestDefaultValues(t *testing.T) {
	cfg := Default()

	if cfg.Audio.Backend != "speaker" {
		t.Errorf("expected backend speaker, got %s", cfg.Audio.Backend)
	}
	if cfg.Audio.SampleRate != 44100 {
		t.Errorf("expected sample rate 44100, got %d", cfg.Audio.SampleRate)
	}
	if cfg.Analysis.FFTSize != 1024 {
		t.Errorf("expected fft size 1024, got %d", cfg.Analysis.FFTSize)
	}
	if cfg.Analysis.Smoothing != 0.8 {
		t.Errorf("expected smoothing 0.8, got %g", cfg.Analysis.Smoothing)
	}
	if cfg.Analysis.MinDecibels != -90 || cfg.Analysis.MaxDecibels != -10 {
		t.Errorf("expected -90/-10 dB, got %g/%g", cfg.Analysis.MinDecibels, cfg.Analysis.MaxDecibels)
	}
	if cfg.SampleInterval() != 50*time.Millisecond {
		t.Errorf("expected 50ms sample interval, got %s", cfg.SampleInterval())
	}
	if cfg.ThinkingDelay() != 250*time.Millisecond {
		t.Errorf("expected 250ms thinking delay, got %s", cfg.ThinkingDelay())
	}
	if cfg.SafetyMargin() != 500*time.Millisecond {
		t.Errorf("expected 500ms safety margin, got %s", cfg.SafetyMargin())
	}
	if cfg.Classifier.CentroidLow != 800 || cfg.Classifier.CentroidHigh != 2500 {
		t.Errorf("unexpected centroid thresholds %g/%g", cfg.Classifier.CentroidLow, cfg.Classifier.CentroidHigh)
	}
	if cfg.Classifier.RMSLow != 0.1 || cfg.Classifier.RMSHigh != 0.4 || cfg.Classifier.ZCRHigh != 0.15 {
		t.Errorf("unexpected rms/zcr thresholds %+v", cfg.Classifier)
	}
	if len(cfg.Replies) != 3 {
		t.Errorf("expected 3 builtin replies, got %d", len(cfg.Replies))
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.toml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if cfg.Audio.Backend != "speaker" {
		t.Errorf("expected default backend, got %s", cfg.Audio.Backend)
	}
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
theme = "everforest"
familiarity = 0.9

[audio]
backend = "null"
sample_rate = 48000

[analysis]
enabled = false
interval_ms = 25

[classifier]
centroid_high = 3000

[timing]
thinking_ms = 0

[[reply]]
id = 7
clip = "/tmp/chirp.wav"
caption = "custom"
hint = "playful"
tags = ["ball"]
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Theme != "everforest" {
		t.Errorf("expected everforest, got %s", cfg.Theme)
	}
	if cfg.Familiarity != 0.9 {
		t.Errorf("expected familiarity 0.9, got %g", cfg.Familiarity)
	}
	if cfg.Audio.Backend != "null" {
		t.Errorf("expected null backend, got %s", cfg.Audio.Backend)
	}
	if cfg.Audio.SampleRate != 48000 {
		t.Errorf("expected 48000, got %d", cfg.Audio.SampleRate)
	}
	if cfg.Analysis.Enabled {
		t.Error("expected analysis disabled")
	}
	if cfg.SampleInterval() != 25*time.Millisecond {
		t.Errorf("expected 25ms, got %s", cfg.SampleInterval())
	}
	if cfg.Classifier.CentroidHigh != 3000 {
		t.Errorf("expected 3000, got %g", cfg.Classifier.CentroidHigh)
	}
	if cfg.ThinkingDelay() != 0 {
		t.Errorf("expected no thinking delay, got %s", cfg.ThinkingDelay())
	}
	if len(cfg.Replies) != 1 {
		t.Fatalf("expected custom replies to replace builtins, got %d", len(cfg.Replies))
	}
	if cfg.Replies[0].ID != 7 || cfg.Replies[0].Clip != "/tmp/chirp.wav" {
		t.Errorf("unexpected reply %+v", cfg.Replies[0])
	}
}

func TestLoadPartialOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[audio]
backend = "portaudio"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Audio.Backend != "portaudio" {
		t.Errorf("expected portaudio, got %s", cfg.Audio.Backend)
	}
	// Non-overridden values should remain defaults
	if cfg.Audio.SampleRate != 44100 {
		t.Errorf("expected default sample rate, got %d", cfg.Audio.SampleRate)
	}
	if cfg.Analysis.FFTSize != 1024 {
		t.Errorf("expected default fft size, got %d", cfg.Analysis.FFTSize)
	}
	if len(cfg.Replies) != 3 {
		t.Errorf("expected builtin replies kept, got %d", len(cfg.Replies))
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[audio\nbackend ="), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed TOML")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := Default()
	cfg.Theme = "gruvbox"
	cfg.Classifier.RMSHigh = 0.5

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load after Save failed: %v", err)
	}

	if loaded.Theme != "gruvbox" {
		t.Errorf("expected theme gruvbox, got %s", loaded.Theme)
	}
	if loaded.Classifier.RMSHigh != 0.5 {
		t.Errorf("expected rms_high 0.5, got %g", loaded.Classifier.RMSHigh)
	}
	if loaded.Audio.SampleRate != 44100 {
		t.Errorf("expected default sample rate preserved, got %d", loaded.Audio.SampleRate)
	}
	if len(loaded.Replies) != len(cfg.Replies) {
		t.Errorf("expected %d replies, got %d", len(cfg.Replies), len(loaded.Replies))
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "dir", "config.toml")

	cfg := Default()
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save failed to create nested dirs: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file to exist at %s: %v", path, err)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"backend":     func(c *Config) { c.Audio.Backend = "alsa" },
		"sample rate": func(c *Config) { c.Audio.SampleRate = 0 },
		"fft size":    func(c *Config) { c.Analysis.FFTSize = 1000 },
		"smoothing":   func(c *Config) { c.Analysis.Smoothing = 1 },
		"decibels":    func(c *Config) { c.Analysis.MinDecibels = 0 },
		"interval":    func(c *Config) { c.Analysis.IntervalMs = 0 },
		"centroid":    func(c *Config) { c.Classifier.CentroidLow = 5000 },
		"rms":         func(c *Config) { c.Classifier.RMSLow = 0.9 },
		"familiarity": func(c *Config) { c.Familiarity = 2 },
		"quality":     func(c *Config) { c.Synthesis.ResampleQuality = 0 },
		"replies":     func(c *Config) { c.Replies = nil },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := Save(path, Default()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 4)
	go func() {
		_ = Watch(ctx, path, zerolog.Nop(), func(c *Config) { changes <- c })
	}()

	// Give the watcher a moment to register the directory.
	time.Sleep(100 * time.Millisecond)

	cfg := Default()
	cfg.Classifier.ZCRHigh = 0.3
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-changes:
		if got.Classifier.ZCRHigh != 0.3 {
			t.Errorf("expected reloaded zcr_high 0.3, got %g", got.Classifier.ZCRHigh)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}

func TestLoadCustomThemes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
theme = "panda"

[[custom_theme]]
name = "panda"
primary = "#000000"
background = "#FFFFFF"

[[custom_theme]]
name = "ink"
primary = "#111111"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.CustomThemes) != 2 {
		t.Fatalf("expected 2 custom themes, got %d", len(cfg.CustomThemes))
	}
	if cfg.CustomThemes[0].Background != "#FFFFFF" {
		t.Errorf("expected background #FFFFFF, got %q", cfg.CustomThemes[0].Background)
	}
	if cfg.Theme != "panda" {
		t.Errorf("expected theme panda, got %q", cfg.Theme)
	}
}
