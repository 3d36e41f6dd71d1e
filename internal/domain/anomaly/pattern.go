// Package anomaly provides domain entities for semantic anomaly detection.
package anomaly

// Pattern is a fixed-length sparse binary feature vector for one observation.
// Length is constant for the lifetime of an engine instance.
type Pattern []bool

// Clone returns an independent copy of the pattern.
func (p Pattern) Clone() Pattern {
	out := make(Pattern, len(p))
	copy(out, p)
	return out
}

// ActiveCount returns the number of set bits.
func (p Pattern) ActiveCount() int {
	n := 0
	for _, b := range p {
		if b {
			n++
		}
	}
	return n
}

// AnyActive reports whether at least one bit is set.
func (p Pattern) AnyActive() bool {
	for _, b := range p {
		if b {
			return true
		}
	}
	return false
}

// PredictionResult is the upstream sequence model's output for one step.
type PredictionResult struct {
	// Accuracy is the model's per-step prediction accuracy in [0,1].
	Accuracy float64 `json:"accuracy"`

	// Predicted is the predicted bit vector, same length as the observed pattern.
	Predicted Pattern `json:"predicted"`
}

// TotalFailure reports whether the model predicted no active bit at all.
// This degenerate signal routes the composer onto its fallback path.
func (r PredictionResult) TotalFailure() bool {
	return !r.Predicted.AnyActive()
}

// Observation bundles the inputs for one scoring step.
type Observation struct {
	Pattern    Pattern
	Prediction PredictionResult

	// SemanticSimilarity is an externally computed similarity in [0,1],
	// nil when unavailable.
	SemanticSimilarity *float64
}
