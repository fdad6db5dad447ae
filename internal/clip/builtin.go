package clip

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"sort"
)

// BuiltinPrefix marks clip references that are synthesized instead of read.
const BuiltinPrefix = "builtin:"

const builtinLength = 1.5 // seconds

// chirp is one swept tone inside a builtin clip.
type chirp struct {
	start, length float64 // seconds
	from, to      float64 // Hz
	amp           float64
	vibrato       float64 // Hz of pitch wobble, 0 for none
	noise         float64 // breathiness, fraction of amp
}

var builtins = map[string][]chirp{
	// Two bright rising chirps.
	"greeting": {
		{start: 0.05, length: 0.35, from: 900, to: 1500, amp: 0.6},
		{start: 0.55, length: 0.40, from: 1000, to: 1800, amp: 0.55},
		{start: 1.05, length: 0.30, from: 1200, to: 1600, amp: 0.4},
	},
	// A long low moan with a wobble.
	"hungry": {
		{start: 0.0, length: 0.8, from: 380, to: 300, amp: 0.7, vibrato: 6},
		{start: 0.85, length: 0.6, from: 340, to: 260, amp: 0.6, vibrato: 5, noise: 0.1},
	},
	// Fast high yips with some air.
	"playful": {
		{start: 0.00, length: 0.12, from: 1800, to: 2600, amp: 0.5, noise: 0.2},
		{start: 0.18, length: 0.12, from: 2000, to: 2800, amp: 0.5, noise: 0.2},
		{start: 0.36, length: 0.15, from: 1700, to: 2400, amp: 0.55, noise: 0.25},
		{start: 0.62, length: 0.12, from: 2200, to: 3000, amp: 0.45, noise: 0.2},
		{start: 0.85, length: 0.25, from: 1600, to: 2900, amp: 0.5, noise: 0.3},
		{start: 1.20, length: 0.20, from: 2400, to: 1900, amp: 0.45, noise: 0.2},
	},
	"default": {
		{start: 0.0, length: 0.5, from: 600, to: 1100, amp: 0.6, vibrato: 4},
		{start: 0.6, length: 0.4, from: 1100, to: 800, amp: 0.55, noise: 0.05},
		{start: 1.1, length: 0.35, from: 700, to: 1300, amp: 0.5},
	},
}

// BuiltinNames lists the builtin clip names in sorted order.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtin synthesizes the named builtin clip at sampleRate. The output is
// deterministic for a given name and rate.
func Builtin(name string, sampleRate int) (*Clip, error) {
	chirps, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown builtin clip %q", name)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	samples := make([]float64, int(builtinLength*float64(sampleRate)))
	rng := rand.New(rand.NewPCG(nameSeed(name), 0x5eed))
	for _, c := range chirps {
		renderChirp(samples, sampleRate, c, rng)
	}
	for i, v := range samples {
		samples[i] = math.Max(-1, math.Min(1, v))
	}

	return &Clip{ID: BuiltinPrefix + name, Samples: samples, SampleRate: sampleRate}, nil
}

func renderChirp(dst []float64, sampleRate int, c chirp, rng *rand.Rand) {
	first := int(c.start * float64(sampleRate))
	n := int(c.length * float64(sampleRate))
	phase := 0.0
	for i := 0; i < n && first+i < len(dst); i++ {
		t := float64(i) / float64(sampleRate)
		progress := float64(i) / float64(n)
		freq := c.from + (c.to-c.from)*progress
		if c.vibrato > 0 {
			freq *= 1 + 0.03*math.Sin(2*math.Pi*c.vibrato*t)
		}
		phase += 2 * math.Pi * freq / float64(sampleRate)

		envelope := math.Sin(math.Pi * progress)
		v := math.Sin(phase) + 0.35*math.Sin(2*phase) + 0.15*math.Sin(3*phase)
		v /= 1.5
		if c.noise > 0 {
			v += c.noise * (rng.Float64()*2 - 1)
		}
		dst[first+i] += v * envelope * c.amp
	}
}

// nameSeed is the FNV-1a hash of name.
func nameSeed(name string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return h.Sum64()
}
