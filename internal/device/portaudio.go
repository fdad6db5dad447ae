package device

import (
	"errors"
	"fmt"
	"time"

	"github.com/gopxl/beep"
	"github.com/gordonklaus/portaudio"
	"github.com/rs/zerolog"
)

// portaudioDevice writes the mix to the default PortAudio output with a
// blocking stream.
type portaudioDevice struct {
	mixerSink
	sr     beep.SampleRate
	stream *portaudio.Stream
	out    []float32
	frames [][2]float64
	logger zerolog.Logger

	done     chan struct{} // closed when writeLoop should exit
	loopDone chan struct{} // closed when writeLoop has exited
}

func openPortAudio(cfg Config, logger zerolog.Logger) (*portaudioDevice, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, &UnavailableError{Backend: "portaudio", Err: err}
	}

	sr := beep.SampleRate(cfg.SampleRate)
	framesPerBuffer := sr.N(time.Duration(cfg.BufferMs) * time.Millisecond)
	d := &portaudioDevice{
		mixerSink: mixerSink{backend: "portaudio"},
		sr:        sr,
		out:       make([]float32, framesPerBuffer*2),
		frames:    make([][2]float64, framesPerBuffer),
		logger:    logger,
		done:      make(chan struct{}),
		loopDone:  make(chan struct{}),
	}

	stream, err := portaudio.OpenDefaultStream(0, 2, float64(cfg.SampleRate), framesPerBuffer, &d.out)
	if err != nil {
		portaudio.Terminate()
		return nil, &UnavailableError{Backend: "portaudio", Err: fmt.Errorf("open stream: %w", err)}
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, &UnavailableError{Backend: "portaudio", Err: fmt.Errorf("start stream: %w", err)}
	}
	d.stream = stream

	go d.writeLoop()

	logger.Debug().Int("sample_rate", cfg.SampleRate).Int("frames", framesPerBuffer).Msg("portaudio stream started")
	return d, nil
}

func (d *portaudioDevice) writeLoop() {
	defer close(d.loopDone)
	for {
		select {
		case <-d.done:
			return
		default:
		}

		d.fill(d.frames)
		for i, f := range d.frames {
			d.out[2*i] = float32(f[0])
			d.out[2*i+1] = float32(f[1])
		}
		if err := d.stream.Write(); err != nil {
			if errors.Is(err, portaudio.OutputUnderflowed) {
				d.logger.Debug().Msg("portaudio output underflowed")
				continue
			}
			d.logger.Warn().Err(err).Msg("portaudio write failed")
			return
		}
	}
}

func (d *portaudioDevice) SampleRate() beep.SampleRate { return d.sr }

func (d *portaudioDevice) Play(s beep.Streamer) error { return d.play(s) }

// Resume reports whether the stream is still running; a blocking stream
// never suspends on its own.
func (d *portaudioDevice) Resume() error {
	if err := d.check(); err != nil {
		return err
	}
	select {
	case <-d.loopDone:
		return &UnavailableError{Backend: "portaudio", Err: fmt.Errorf("output stream stopped")}
	default:
		return nil
	}
}

func (d *portaudioDevice) Close() error {
	if !d.markClosed() {
		return nil
	}
	close(d.done)
	<-d.loopDone

	var firstErr error
	if err := d.stream.Stop(); err != nil {
		firstErr = err
	}
	if err := d.stream.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := portaudio.Terminate(); err != nil && firstErr == nil {
		firstErr = err
	}
	d.logger.Debug().Msg("portaudio stream closed")
	return firstErr
}

func (d *portaudioDevice) Closed() bool { return d.isClosed() }

// Info describes one output-capable PortAudio device.
type Info struct {
	Name              string
	HostAPI           string
	MaxOutputChannels int
	DefaultSampleRate float64
	Default           bool
}

// Devices lists the PortAudio output devices.
func Devices() ([]Info, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, &UnavailableError{Backend: "portaudio", Err: err}
	}
	defer portaudio.Terminate()

	devs, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	var defName string
	if def, err := portaudio.DefaultOutputDevice(); err == nil && def != nil {
		defName = def.Name
	}

	var out []Info
	for _, d := range devs {
		if d.MaxOutputChannels == 0 {
			continue
		}
		info := Info{
			Name:              d.Name,
			MaxOutputChannels: d.MaxOutputChannels,
			DefaultSampleRate: d.DefaultSampleRate,
			Default:           d.Name == defName,
		}
		if d.HostApi != nil {
			info.HostAPI = d.HostApi.Name
		}
		out = append(out, info)
	}
	return out, nil
}
