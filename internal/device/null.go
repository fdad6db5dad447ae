package device

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/rs/zerolog"
)

const nullTick = 10 * time.Millisecond

// NullDevice discards its output. With realtime set it consumes the mix at
// wall-clock pace on its own goroutine; otherwise audio only advances
// through Render.
type NullDevice struct {
	mixerSink
	sr     beep.SampleRate
	logger zerolog.Logger

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewNull creates a NullDevice.
func NewNull(sr beep.SampleRate, realtime bool, logger zerolog.Logger) *NullDevice {
	d := &NullDevice{
		mixerSink: mixerSink{backend: "null"},
		sr:        sr,
		logger:    logger,
		stop:      make(chan struct{}),
	}
	if realtime {
		d.wg.Add(1)
		go d.pump()
	}
	return d
}

func (d *NullDevice) pump() {
	defer d.wg.Done()
	ticker := time.NewTicker(nullTick)
	defer ticker.Stop()

	start := time.Now()
	rendered := 0
	var buf [][2]float64
	for {
		select {
		case <-d.stop:
			return
		case <-ticker.C:
			due := d.sr.N(time.Since(start)) - rendered
			if due <= 0 {
				continue
			}
			if cap(buf) < due {
				buf = make([][2]float64, due)
			}
			d.fill(buf[:due])
			rendered += due
		}
	}
}

// Render pulls the next n frames of the mix synchronously.
func (d *NullDevice) Render(n int) [][2]float64 {
	buf := make([][2]float64, n)
	d.fill(buf)
	return buf
}

// Active returns the number of streamers still in the mix.
func (d *NullDevice) Active() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mixer.Len()
}

func (d *NullDevice) SampleRate() beep.SampleRate { return d.sr }

func (d *NullDevice) Play(s beep.Streamer) error { return d.play(s) }

func (d *NullDevice) Resume() error { return d.check() }

func (d *NullDevice) Close() error {
	d.markClosed()
	d.stopOnce.Do(func() { close(d.stop) })
	d.wg.Wait()
	return nil
}

func (d *NullDevice) Closed() bool { return d.isClosed() }
