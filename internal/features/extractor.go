// Package features turns analysis snapshots into scalar descriptors and
// accumulates them over one utterance.
package features

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Sample is one instantaneous measurement. A ZCR of zero or less means the
// zero-crossing rate was not measured.
type Sample struct {
	RMS      float64 // [0, 1]
	Centroid float64 // Hz
	ZCR      float64 // [0, 1]
}

// Extract computes a Sample from a byte-encoded frequency snapshot (one
// magnitude per bin, 0-255) and time snapshot (128 is silence).
func Extract(freq, timeData []uint8, sampleRate int) Sample {
	return Sample{
		RMS:      RMS(timeData),
		Centroid: Centroid(freq, sampleRate),
		ZCR:      ZCR(timeData),
	}
}

func signed(timeData []uint8) []float64 {
	out := make([]float64, len(timeData))
	for i, b := range timeData {
		out[i] = (float64(b) - 128) / 128
	}
	return out
}

// RMS returns the root-mean-square amplitude of a time snapshot.
func RMS(timeData []uint8) float64 {
	if len(timeData) == 0 {
		return 0
	}
	s := signed(timeData)
	return math.Sqrt(floats.Dot(s, s) / float64(len(s)))
}

// Centroid returns the magnitude-weighted mean frequency of a frequency
// snapshot, or 0 when every bin is silent.
func Centroid(freq []uint8, sampleRate int) float64 {
	if len(freq) == 0 {
		return 0
	}
	binWidth := float64(sampleRate) / 2 / float64(len(freq))
	mags := make([]float64, len(freq))
	hz := make([]float64, len(freq))
	for i, b := range freq {
		mags[i] = float64(b) / 255
		hz[i] = float64(i) * binWidth
	}
	total := floats.Sum(mags)
	if total == 0 {
		return 0
	}
	return floats.Dot(hz, mags) / total
}

// ZCR returns the fraction of adjacent sample pairs in a time snapshot that
// change sign.
func ZCR(timeData []uint8) float64 {
	if len(timeData) < 2 {
		return 0
	}
	s := signed(timeData)
	crossings := 0
	for i := 1; i < len(s); i++ {
		if (s[i] >= 0) != (s[i-1] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(s)-1)
}
