// Package grain plans and renders granular utterances from a source clip.
package grain

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Hint biases parameter derivation toward a mood.
type Hint string

const (
	HintGreeting Hint = "greeting"
	HintHungry   Hint = "hungry"
	HintPlayful  Hint = "playful"
	HintRandom   Hint = "random"
)

// ParseHint maps a name to a Hint. Unknown or empty names become HintRandom.
func ParseHint(s string) Hint {
	switch h := Hint(s); h {
	case HintGreeting, HintHungry, HintPlayful:
		return h
	}
	return HintRandom
}

// Params describes how grains vary within one utterance. Ranges are
// inclusive [min, max] pairs; durations are in seconds.
type Params struct {
	GrainCount     [2]int
	PitchSemitones float64
	Speed          [2]float64
	GrainDuration  [2]float64
	GrainInterval  [2]float64
	Reverb         bool
}

// DefaultParams returns the unbiased parameter set.
func DefaultParams() Params {
	return Params{
		GrainCount:     [2]int{2, 3},
		PitchSemitones: 3,
		Speed:          [2]float64{0.85, 1.15},
		GrainDuration:  [2]float64{0.25, 0.6},
		GrainInterval:  [2]float64{0.06, 0.2},
		Reverb:         true,
	}
}

// Validate rejects inverted or non-positive ranges.
func (p Params) Validate() error {
	if p.GrainCount[0] < 1 || p.GrainCount[1] < p.GrainCount[0] {
		return fmt.Errorf("invalid grain count range %v", p.GrainCount)
	}
	if p.PitchSemitones < 0 || math.IsNaN(p.PitchSemitones) {
		return fmt.Errorf("invalid pitch variation %g", p.PitchSemitones)
	}
	if p.Speed[0] <= 0 || p.Speed[1] < p.Speed[0] {
		return fmt.Errorf("invalid speed range %v", p.Speed)
	}
	if p.GrainDuration[0] <= 0 || p.GrainDuration[1] < p.GrainDuration[0] {
		return fmt.Errorf("invalid grain duration range %v", p.GrainDuration)
	}
	if p.GrainInterval[0] < 0 || p.GrainInterval[1] < p.GrainInterval[0] {
		return fmt.Errorf("invalid grain interval range %v", p.GrainInterval)
	}
	return nil
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// ParamsFor derives a parameter set for h. Every call draws fresh values
// from rng.
func ParamsFor(h Hint, rng *rand.Rand) Params {
	p := DefaultParams()
	p.GrainCount = [2]int{2, int(uniform(rng, 2, 6))}
	p.Reverb = rng.Float64() > 0.3

	switch h {
	case HintGreeting:
		p.PitchSemitones = uniform(rng, 1, 2)
		p.Speed = [2]float64{0.9, 1.1}
		p.GrainDuration = [2]float64{0.3, 0.5}
	case HintHungry:
		p.PitchSemitones = uniform(rng, 0.5, 1.5)
		p.Speed = [2]float64{0.85, 1.0}
		p.GrainDuration = [2]float64{0.4, 0.6}
	case HintPlayful:
		p.PitchSemitones = uniform(rng, 2, 3)
		p.Speed = [2]float64{1.0, 1.15}
		p.GrainDuration = [2]float64{0.25, 0.4}
		p.GrainInterval = [2]float64{0.05, 0.15}
	default:
		p.PitchSemitones = uniform(rng, 1, 3)
		p.Speed = [2]float64{uniform(rng, 0.85, 0.95), uniform(rng, 1.05, 1.15)}
		p.GrainDuration = [2]float64{uniform(rng, 0.25, 0.35), uniform(rng, 0.45, 0.6)}
	}
	return p
}

// Familiarize scales p by a familiarity factor in [0, 1]. Low familiarity
// yields fewer grains, narrower pitch swings and no reverb.
func (p Params) Familiarize(f float64) Params {
	f = math.Max(0, math.Min(1, f))
	expr := 0.5 + 0.5*f

	p.GrainCount[1] = max(2, int(math.Floor(float64(p.GrainCount[1])*expr)))
	if p.GrainCount[0] > p.GrainCount[1] {
		p.GrainCount[0] = p.GrainCount[1]
	}
	p.PitchSemitones *= expr
	p.Reverb = p.Reverb && f > 0.3
	return p
}
