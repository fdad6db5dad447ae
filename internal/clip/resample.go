package clip

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Resample converts mono samples from inputRate to outputRate using
// polyphase FIR filtering (via go-audio-resampling). QualityLow is plenty
// for chirps that are about to be pitch-shifted anyway.
func Resample(samples []float64, inputRate, outputRate float64) ([]float64, error) {
	if inputRate == outputRate || len(samples) == 0 {
		return samples, nil
	}
	out, err := resampling.ResampleMono(samples, inputRate, outputRate, resampling.QualityLow)
	if err != nil {
		return nil, fmt.Errorf("resample mono: %w", err)
	}
	return out, nil
}
