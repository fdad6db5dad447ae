package grain

import (
	"math"
	"math/rand/v2"

	"github.com/Danondso/squeak/internal/clip"
)

// Grain is one scheduled excerpt of the source clip. Times are seconds;
// Duration is output time.
type Grain struct {
	Index    int
	Start    float64 // relative to utterance start
	Offset   float64 // position in the source clip
	Duration float64
	Pitch    float64 // semitones
	Speed    float64
	Rate     float64 // Speed * SemitoneRatio(Pitch)
}

// End returns the time the grain stops sounding.
func (g Grain) End() float64 { return g.Start + g.Duration }

// TimelineEntry records when a grain played.
type TimelineEntry struct {
	Index    int
	Start    float64
	Duration float64
	Skipped  bool // the grain failed to render and was silent
}

// Plan is a fully drawn utterance, ready to render.
type Plan struct {
	Grains []Grain
	Reverb bool
}

// Duration returns the latest grain end in seconds.
func (p Plan) Duration() float64 {
	var d float64
	for _, g := range p.Grains {
		d = math.Max(d, g.End())
	}
	return d
}

// Timeline returns one entry per grain in schedule order.
func (p Plan) Timeline() []TimelineEntry {
	out := make([]TimelineEntry, len(p.Grains))
	for i, g := range p.Grains {
		out[i] = TimelineEntry{Index: g.Index, Start: g.Start, Duration: g.Duration}
	}
	return out
}

// SemitoneRatio converts a pitch shift to a frequency ratio.
func SemitoneRatio(semitones float64) float64 {
	return math.Exp2(semitones / 12)
}

// Schedule draws a Plan for c from params. The result depends only on its
// inputs and the state of rng.
func Schedule(c *clip.Clip, params Params, rng *rand.Rand) (Plan, error) {
	if err := params.Validate(); err != nil {
		return Plan{}, err
	}
	return schedule(c.Duration(), params, rng), nil
}

func schedule(clipDur float64, params Params, rng *rand.Rand) Plan {
	lo, hi := params.GrainCount[0], params.GrainCount[1]
	n := lo + rng.IntN(hi-lo+1)

	maxOffset := math.Max(0, clipDur-params.GrainDuration[1])
	grains := make([]Grain, n)
	var start float64
	for i := range grains {
		if i > 0 {
			start += uniform(rng, params.GrainInterval[0], params.GrainInterval[1])
		}

		g := Grain{Index: i, Start: start}
		g.Offset = uniform(rng, 0, maxOffset)
		g.Pitch = uniform(rng, -params.PitchSemitones, params.PitchSemitones)
		g.Speed = uniform(rng, params.Speed[0], params.Speed[1])
		g.Rate = g.Speed * SemitoneRatio(g.Pitch)
		g.Duration = uniform(rng, params.GrainDuration[0], params.GrainDuration[1])

		// Neither the output length nor the source region it reads may run
		// past the end of the clip.
		remaining := clipDur - g.Offset
		g.Duration = math.Min(g.Duration, remaining/math.Max(1, g.Rate))
		grains[i] = g
	}
	return Plan{Grains: grains, Reverb: params.Reverb}
}
