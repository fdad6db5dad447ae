package device

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/rs/zerolog"
)

// speakerDevice plays through beep's process-wide speaker.
type speakerDevice struct {
	sr     beep.SampleRate
	logger zerolog.Logger

	mu     sync.Mutex
	closed bool
}

func openSpeaker(cfg Config, logger zerolog.Logger) (*speakerDevice, error) {
	sr := beep.SampleRate(cfg.SampleRate)
	buffer := sr.N(time.Duration(cfg.BufferMs) * time.Millisecond)
	if err := speaker.Init(sr, buffer); err != nil {
		return nil, &UnavailableError{Backend: "speaker", Err: err}
	}
	logger.Debug().Int("sample_rate", cfg.SampleRate).Int("buffer", buffer).Msg("speaker initialized")
	return &speakerDevice{sr: sr, logger: logger}, nil
}

func (d *speakerDevice) SampleRate() beep.SampleRate { return d.sr }

func (d *speakerDevice) Play(s beep.Streamer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return &UnavailableError{Backend: "speaker", Err: errClosed}
	}
	speaker.Play(s)
	return nil
}

func (d *speakerDevice) Resume() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return &UnavailableError{Backend: "speaker", Err: errClosed}
	}
	if err := speaker.Resume(); err != nil {
		return &UnavailableError{Backend: "speaker", Err: err}
	}
	return nil
}

func (d *speakerDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	speaker.Clear()
	speaker.Close()
	d.logger.Debug().Msg("speaker closed")
	return nil
}

func (d *speakerDevice) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}
