package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Danondso/squeak/internal/config"
	"github.com/Danondso/squeak/internal/translator"
)

func TestClipRef(t *testing.T) {
	if got := clipRef("Greeting"); got != "builtin:greeting" {
		t.Errorf("expected builtin:greeting, got %q", got)
	}
	if got := clipRef("/tmp/x.wav"); got != "/tmp/x.wav" {
		t.Errorf("expected path unchanged, got %q", got)
	}
}

func TestConfigMapping(t *testing.T) {
	cfg := config.Default()
	cfg.Synthesis.FadeMs = 20
	cfg.Classifier.ZCRHigh = 0.3

	ec := engineConfig(cfg)
	if ec.FadeSec != 0.02 {
		t.Errorf("expected fade 0.02, got %g", ec.FadeSec)
	}
	if thresholds(cfg).ZCRHigh != 0.3 {
		t.Errorf("expected zcr threshold 0.3, got %g", thresholds(cfg).ZCRHigh)
	}
	tc := translatorConfig(cfg)
	if tc.ThinkingDelay != 250*time.Millisecond || tc.Analysis.FFTSize != 1024 {
		t.Errorf("unexpected translator config %+v", tc)
	}
}

func TestLoadConfigBackendOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, err := loadConfig(path, "null")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Audio.Backend != "null" {
		t.Errorf("expected null backend, got %q", cfg.Audio.Backend)
	}
	if _, err := loadConfig(path, "bogus"); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestApplyReload(t *testing.T) {
	tr := translator.New(translator.Options{Config: translator.DefaultConfig(), Logger: zerolog.Nop()})
	defer tr.Close()

	cfg := config.Default()
	cfg.Analysis.Enabled = false
	cfg.Classifier.CentroidHigh = 4000
	applyReload(tr, cfg, zerolog.Nop())

	if tr.AnalysisEnabled() {
		t.Error("expected analysis disabled")
	}
	if tr.Classifier().Thresholds().CentroidHigh != 4000 {
		t.Errorf("expected centroid_high 4000, got %g", tr.Classifier().Thresholds().CentroidHigh)
	}
}

func TestNewTranslatorNullBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Audio.Backend = "null"
	tr := newTranslator(cfg, zerolog.Nop())
	if err := tr.Close(); err != nil {
		t.Errorf("unexpected close error: %v", err)
	}
}
