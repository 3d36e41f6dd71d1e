// Package sequence provides the upstream predictive model: a first-order
// transition memory over observed patterns. The anomaly engine itself never
// learns transitions; it consumes this package's per-step output.
package sequence

import (
	"hash/fnv"

	domainAnomaly "github.com/MRIIOT/llm-cmp-sub005/internal/domain/anomaly"
)

const (
	// defaultMaxTransitions bounds the transition table (FIFO eviction).
	defaultMaxTransitions = 1024

	// predictionThreshold is the successor-bit frequency above which a bit
	// is predicted active.
	predictionThreshold = 0.5
)

// transition accumulates per-bit successor statistics for one predecessor.
type transition struct {
	counts  []int
	samples int
}

// Predictor learns first-order transitions between consecutive patterns and
// emits a PredictionResult for each observed step.
type Predictor struct {
	maxTransitions int
	transitions    map[uint64]*transition
	order          []uint64

	prevKey    uint64
	hasPrev    bool
	prediction domainAnomaly.Pattern
}

// NewPredictor creates a predictor with a bounded transition table.
func NewPredictor(maxTransitions int) *Predictor {
	if maxTransitions <= 0 {
		maxTransitions = defaultMaxTransitions
	}
	return &Predictor{
		maxTransitions: maxTransitions,
		transitions:    make(map[uint64]*transition),
	}
}

// Observe scores the pattern against the prediction made on the previous
// step, learns the transition that just completed, and prepares the
// prediction for the next step. The very first step has no prior prediction
// and reports a total-failure result.
func (p *Predictor) Observe(pattern domainAnomaly.Pattern) domainAnomaly.PredictionResult {
	result := domainAnomaly.PredictionResult{
		Accuracy:  overlap(p.prediction, pattern),
		Predicted: p.prediction.Clone(),
	}

	key := digest(pattern)
	if p.hasPrev {
		p.learn(p.prevKey, pattern)
	}

	p.prediction = p.predictNext(key, pattern)
	p.prevKey = key
	p.hasPrev = true

	return result
}

// Reset clears the transition table and pending prediction.
func (p *Predictor) Reset() {
	p.transitions = make(map[uint64]*transition)
	p.order = nil
	p.hasPrev = false
	p.prediction = nil
}

// learn folds the observed successor into the predecessor's statistics.
func (p *Predictor) learn(prevKey uint64, next domainAnomaly.Pattern) {
	t, ok := p.transitions[prevKey]
	if !ok {
		if len(p.transitions) >= p.maxTransitions && len(p.order) > 0 {
			oldest := p.order[0]
			p.order = p.order[1:]
			delete(p.transitions, oldest)
		}
		t = &transition{counts: make([]int, len(next))}
		p.transitions[prevKey] = t
		p.order = append(p.order, prevKey)
	}

	if len(t.counts) < len(next) {
		grown := make([]int, len(next))
		copy(grown, t.counts)
		t.counts = grown
	}
	for i, b := range next {
		if b {
			t.counts[i]++
		}
	}
	t.samples++
}

// predictNext returns the bits expected on the following step: learned
// successor frequencies when the current pattern has been seen before,
// otherwise naive persistence of the current pattern.
func (p *Predictor) predictNext(key uint64, current domainAnomaly.Pattern) domainAnomaly.Pattern {
	t, ok := p.transitions[key]
	if !ok || t.samples == 0 {
		return current.Clone()
	}

	predicted := make(domainAnomaly.Pattern, len(t.counts))
	for i, c := range t.counts {
		if float64(c)/float64(t.samples) >= predictionThreshold {
			predicted[i] = true
		}
	}
	if !predicted.AnyActive() {
		return current.Clone()
	}
	return predicted
}

// overlap measures prediction accuracy as |predicted ∩ actual| over
// |predicted ∪ actual|, 0 when either side is empty or lengths mismatch.
func overlap(predicted, actual domainAnomaly.Pattern) float64 {
	if len(predicted) != len(actual) || len(predicted) == 0 {
		return 0
	}
	intersection, union := 0, 0
	for i := range predicted {
		if predicted[i] || actual[i] {
			union++
			if predicted[i] && actual[i] {
				intersection++
			}
		}
	}
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// digest produces a stable key for a pattern's active-bit positions.
func digest(p domainAnomaly.Pattern) uint64 {
	h := fnv.New64a()
	for i, b := range p {
		if b {
			h.Write([]byte{byte(i >> 8), byte(i)})
		}
	}
	return h.Sum64()
}
