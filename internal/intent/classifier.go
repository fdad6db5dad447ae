package intent

import (
	"sync"

	"github.com/Danondso/squeak/internal/features"
)

const minConfidence = 0.2

// Thresholds are the boundaries the scoring rules compare against.
type Thresholds struct {
	CentroidLow  float64 // Hz
	CentroidHigh float64 // Hz
	RMSLow       float64
	RMSHigh      float64
	ZCRHigh      float64
}

// DefaultThresholds returns the stock tuning.
func DefaultThresholds() Thresholds {
	return Thresholds{
		CentroidLow:  800,
		CentroidHigh: 2500,
		RMSLow:       0.1,
		RMSHigh:      0.4,
		ZCRHigh:      0.15,
	}
}

// Result is the outcome of one classification.
type Result struct {
	Intent     Intent
	Confidence float64
	Scores     map[Intent]float64
	Features   features.Aggregate
}

// Classifier is a rule-based scorer. Thresholds may be replaced at any time.
type Classifier struct {
	mu sync.RWMutex
	th Thresholds
}

// NewClassifier returns a Classifier using th.
func NewClassifier(th Thresholds) *Classifier {
	return &Classifier{th: th}
}

// Thresholds returns the thresholds currently in use.
func (c *Classifier) Thresholds() Thresholds {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.th
}

// SetThresholds replaces the thresholds used by later Classify calls.
func (c *Classifier) SetThresholds(th Thresholds) {
	c.mu.Lock()
	c.th = th
	c.mu.Unlock()
}

// Classify scores agg and returns the best intent. The result depends only on
// agg and the current thresholds.
func (c *Classifier) Classify(agg features.Aggregate) Result {
	th := c.Thresholds()
	scores := Score(agg, th)

	best := All[0]
	for _, i := range All[1:] {
		if scores[i] > scores[best] {
			best = i
		}
	}

	conf := scores[best]
	if conf < minConfidence {
		conf = minConfidence
	}
	if conf > 1 {
		conf = 1
	}

	return Result{Intent: best, Confidence: conf, Scores: scores, Features: agg}
}

// Score computes the raw per-intent scores for agg.
func Score(agg features.Aggregate, th Thresholds) map[Intent]float64 {
	scores := map[Intent]float64{Greeting: 0, Playful: 0, Hungry: 0}
	zcr := agg.ZCRAvg

	// Bright, loud, noisy.
	if agg.CentroidAvg > th.CentroidHigh {
		scores[Playful] += 0.4
	}
	if agg.RMSAvg > th.RMSHigh {
		scores[Playful] += 0.3
	}
	if zcr != nil && *zcr > th.ZCRHigh {
		scores[Playful] += 0.3
	}

	// Balanced.
	if agg.CentroidAvg >= th.CentroidLow && agg.CentroidAvg <= th.CentroidHigh {
		scores[Greeting] += 0.4
	}
	if agg.RMSAvg >= th.RMSLow && agg.RMSAvg <= th.RMSHigh {
		scores[Greeting] += 0.4
	}
	if zcr != nil && *zcr < th.ZCRHigh {
		scores[Greeting] += 0.2
	}

	// Dark and either pleading or demanding.
	if agg.CentroidAvg < th.CentroidLow {
		scores[Hungry] += 0.5
	}
	if agg.RMSAvg < th.RMSLow || agg.RMSAvg > th.RMSHigh {
		scores[Hungry] += 0.3
	}
	if zcr != nil && *zcr < th.ZCRHigh*0.7 {
		scores[Hungry] += 0.2
	}

	return scores
}
