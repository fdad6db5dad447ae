package analysis

import (
	"math"
	"testing"

	"github.com/gopxl/beep"
)

// sineStreamer yields n frames of a sine that completes cycles periods per
// 1024 samples.
func sineStreamer(n int, cycles float64, amp float64) beep.Streamer {
	i := 0
	return beep.StreamerFunc(func(buf [][2]float64) (int, bool) {
		if i >= n {
			return 0, false
		}
		k := 0
		for ; k < len(buf) && i < n; k++ {
			v := amp * math.Sin(2*math.Pi*cycles*float64(i)/1024)
			buf[k] = [2]float64{v, v}
			i++
		}
		return k, true
	})
}

func drain(s beep.Streamer) [][2]float64 {
	var out [][2]float64
	buf := make([][2]float64, 256)
	for {
		n, ok := s.Stream(buf)
		out = append(out, buf[:n]...)
		if !ok {
			return out
		}
	}
}

func TestWrapIsTransparent(t *testing.T) {
	tap := New(DefaultConfig())
	want := drain(sineStreamer(3000, 10, 0.5))
	got := drain(tap.Wrap(sineStreamer(3000, 10, 0.5)))

	if len(got) != len(want) {
		t.Fatalf("expected %d frames, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("frame %d altered: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestSilenceSnapshots(t *testing.T) {
	tap := New(DefaultConfig())
	drain(tap.Wrap(beep.Silence(4096)))

	for i, b := range tap.TimeData() {
		if b != 128 {
			t.Fatalf("time sample %d: expected 128, got %d", i, b)
		}
	}
	for i, b := range tap.FrequencyData() {
		if b != 0 {
			t.Fatalf("bin %d: expected 0, got %d", i, b)
		}
	}
	if tap.Level() != 0 {
		t.Errorf("expected level 0, got %f", tap.Level())
	}
}

func TestFrequencyDataPeak(t *testing.T) {
	tap := New(DefaultConfig())
	drain(tap.Wrap(sineStreamer(4096, 64, 0.9)))

	freq := tap.FrequencyData()
	if len(freq) != 512 {
		t.Fatalf("expected 512 bins, got %d", len(freq))
	}
	peak := 0
	for k := range freq {
		if freq[k] > freq[peak] {
			peak = k
		}
	}
	if peak != 64 {
		t.Errorf("expected peak at bin 64, got %d", peak)
	}
	if freq[64] == 0 {
		t.Error("expected non-zero magnitude at the tone bin")
	}
}

func TestFrequencyDataSmoothing(t *testing.T) {
	tap := New(DefaultConfig())
	drain(tap.Wrap(sineStreamer(2048, 64, 0.9)))

	first := tap.FrequencyData()[64]
	second := tap.FrequencyData()[64]
	if second <= first {
		t.Errorf("expected smoothed magnitude to rise on repeated queries, got %d then %d", first, second)
	}
}

func TestTimeDataScaling(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FFTSize = 4
	tap := New(cfg)
	drain(tap.Wrap(beep.StreamerFunc(func() func([][2]float64) (int, bool) {
		done := false
		return func(buf [][2]float64) (int, bool) {
			if done {
				return 0, false
			}
			done = true
			copy(buf, [][2]float64{{-1, -1}, {0, 0}, {0.5, 0.5}, {2, 2}})
			return 4, true
		}
	}())))

	got := tap.TimeData()
	want := []uint8{0, 128, 192, 255}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestDetachAndReset(t *testing.T) {
	tap := New(DefaultConfig())
	drain(tap.Wrap(sineStreamer(1024, 8, 1)))
	if tap.Level() == 0 {
		t.Fatal("expected non-zero level after streaming")
	}

	tap.Reset()
	if tap.Level() != 0 {
		t.Errorf("expected level 0 after reset, got %f", tap.Level())
	}

	tap.Detach()
	frames := drain(tap.Wrap(sineStreamer(1024, 8, 1)))
	if len(frames) != 1024 {
		t.Errorf("expected audio to keep flowing after detach, got %d frames", len(frames))
	}
	if tap.Level() != 0 {
		t.Errorf("expected detached tap to ignore audio, got level %f", tap.Level())
	}
}
