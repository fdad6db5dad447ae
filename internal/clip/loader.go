package clip

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/mp3"
	"github.com/rs/zerolog"
)

// ErrLoad matches every *LoadError via errors.Is.
var ErrLoad = errors.New("clip load failed")

// LoadError reports a clip reference that could not be fetched or decoded.
type LoadError struct {
	Ref string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load clip %s: %v", e.Ref, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool { return target == ErrLoad }

// maxRemoteBytes caps the size of a fetched clip.
var maxRemoteBytes = 32 << 20

// Loader resolves clip references to decoded clips at a fixed sample rate.
// Loaded clips are cached by reference.
type Loader struct {
	sampleRate int
	client     *http.Client
	logger     zerolog.Logger

	mu    sync.Mutex
	cache map[string]*Clip
}

// NewLoader creates a Loader that converts every clip to sampleRate.
func NewLoader(sampleRate int, logger zerolog.Logger) *Loader {
	return &Loader{
		sampleRate: sampleRate,
		client:     &http.Client{Timeout: 15 * time.Second},
		logger:     logger.With().Str("component", "clip").Logger(),
		cache:      make(map[string]*Clip),
	}
}

// SampleRate returns the rate clips are converted to.
func (l *Loader) SampleRate() int { return l.sampleRate }

// Load returns the clip for ref, loading and caching it on first use.
// ref is "builtin:<name>", a local .wav/.mp3 path, or an http(s) URL.
func (l *Loader) Load(ctx context.Context, ref string) (*Clip, error) {
	l.mu.Lock()
	if c, ok := l.cache[ref]; ok {
		l.mu.Unlock()
		return c, nil
	}
	l.mu.Unlock()

	c, err := l.load(ctx, ref)
	if err != nil {
		return nil, &LoadError{Ref: ref, Err: err}
	}
	if len(c.Samples) == 0 {
		return nil, &LoadError{Ref: ref, Err: errors.New("clip has no samples")}
	}

	l.mu.Lock()
	l.cache[ref] = c
	l.mu.Unlock()

	l.logger.Debug().Str("ref", ref).Float64("duration", c.Duration()).Msg("clip loaded")
	return c, nil
}

// Forget drops ref from the cache.
func (l *Loader) Forget(ref string) {
	l.mu.Lock()
	delete(l.cache, ref)
	l.mu.Unlock()
}

// Purge empties the cache.
func (l *Loader) Purge() {
	l.mu.Lock()
	l.cache = make(map[string]*Clip)
	l.mu.Unlock()
}

func (l *Loader) load(ctx context.Context, ref string) (*Clip, error) {
	if name, ok := strings.CutPrefix(ref, BuiltinPrefix); ok {
		return Builtin(name, l.sampleRate)
	}

	var (
		data []byte
		ext  string
		err  error
	)
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		u, perr := url.Parse(ref)
		if perr != nil {
			return nil, perr
		}
		ext = strings.ToLower(path.Ext(u.Path))
		data, err = l.fetch(ctx, ref)
	} else {
		ext = strings.ToLower(path.Ext(ref))
		data, err = os.ReadFile(ref)
	}
	if err != nil {
		return nil, err
	}

	samples, rate, err := decode(data, ext)
	if err != nil {
		return nil, err
	}
	if rate <= 0 {
		return nil, fmt.Errorf("invalid source sample rate %d", rate)
	}
	samples, err = Resample(samples, float64(rate), float64(l.sampleRate))
	if err != nil {
		return nil, err
	}
	return &Clip{ID: ref, Samples: samples, SampleRate: l.sampleRate}, nil
}

func (l *Loader) fetch(ctx context.Context, ref string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, int64(maxRemoteBytes)+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxRemoteBytes {
		return nil, fmt.Errorf("clip too large: over %d bytes", maxRemoteBytes)
	}
	return data, nil
}

func decode(data []byte, ext string) ([]float64, int, error) {
	switch ext {
	case ".wav":
		return DecodeWAV(data)
	case ".mp3":
		return decodeMP3(data)
	}
	switch {
	case bytes.HasPrefix(data, []byte("RIFF")):
		return DecodeWAV(data)
	case bytes.HasPrefix(data, []byte("ID3")), len(data) > 1 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return decodeMP3(data)
	}
	return nil, 0, errors.New("unsupported audio format")
}

func decodeMP3(data []byte) ([]float64, int, error) {
	streamer, format, err := mp3.Decode(io.NopCloser(bytes.NewReader(data)))
	if err != nil {
		return nil, 0, fmt.Errorf("decode mp3: %w", err)
	}
	defer streamer.Close()

	var out []float64
	buf := make([][2]float64, 1024)
	for {
		n, ok := streamer.Stream(buf)
		for i := 0; i < n; i++ {
			out = append(out, (buf[i][0]+buf[i][1])/2)
		}
		if !ok {
			break
		}
	}
	if err := streamer.Err(); err != nil {
		return nil, 0, fmt.Errorf("decode mp3: %w", err)
	}
	return out, int(format.SampleRate), nil
}
