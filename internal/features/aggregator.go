package features

import (
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Aggregate summarizes every Sample added since the last Clear. ZCRAvg is
// nil when no sample carried a zero-crossing rate.
type Aggregate struct {
	RMSAvg      float64
	RMSMax      float64
	CentroidAvg float64
	CentroidMax float64
	ZCRAvg      *float64
	SampleCount int
}

// Empty reports whether the aggregate holds no samples.
func (a Aggregate) Empty() bool { return a.SampleCount == 0 }

// Aggregator accumulates samples for one utterance. It is safe for
// concurrent use.
type Aggregator struct {
	mu       sync.Mutex
	rms      []float64
	centroid []float64
	zcr      []float64
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Add records one sample.
func (a *Aggregator) Add(s Sample) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rms = append(a.rms, s.RMS)
	a.centroid = append(a.centroid, s.Centroid)
	if s.ZCR > 0 {
		a.zcr = append(a.zcr, s.ZCR)
	}
}

// Aggregate returns a snapshot of the current summary.
func (a *Aggregator) Aggregate() Aggregate {
	a.mu.Lock()
	defer a.mu.Unlock()

	agg := Aggregate{SampleCount: len(a.rms)}
	if agg.SampleCount == 0 {
		return agg
	}
	agg.RMSAvg = stat.Mean(a.rms, nil)
	agg.RMSMax = floats.Max(a.rms)
	agg.CentroidAvg = stat.Mean(a.centroid, nil)
	agg.CentroidMax = floats.Max(a.centroid)
	if len(a.zcr) > 0 {
		z := stat.Mean(a.zcr, nil)
		agg.ZCRAvg = &z
	}
	return agg
}

// Count returns the number of samples added since the last Clear.
func (a *Aggregator) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.rms)
}

// Clear discards every sample.
func (a *Aggregator) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rms = a.rms[:0]
	a.centroid = a.centroid[:0]
	a.zcr = a.zcr[:0]
}
