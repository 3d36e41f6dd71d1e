// Package anomaly provides the public API for the semantic anomaly
// detection pipeline.
//
// The Detector assembles the SDR encoder, the upstream sequence predictor,
// the local semantic-similarity estimator, and the anomaly engine behind a
// single serialized entry point.
//
// Example:
//
//	detector := anomaly.NewDetector(anomaly.DefaultConfig())
//	result := detector.Observe("temperature sensor reading nominal")
//	fmt.Printf("anomaly: %.3f\n", result.Score)
package anomaly

import (
	"sync"

	"github.com/MRIIOT/llm-cmp-sub005/internal/config"
	domainAnomaly "github.com/MRIIOT/llm-cmp-sub005/internal/domain/anomaly"
	engineAnomaly "github.com/MRIIOT/llm-cmp-sub005/internal/infrastructure/anomaly"
	"github.com/MRIIOT/llm-cmp-sub005/internal/infrastructure/encoding"
	"github.com/MRIIOT/llm-cmp-sub005/internal/infrastructure/semantic"
	"github.com/MRIIOT/llm-cmp-sub005/internal/infrastructure/sequence"
)

// Re-export types for the public API.
type (
	Pattern          = domainAnomaly.Pattern
	PredictionResult = domainAnomaly.PredictionResult
	Observation      = domainAnomaly.Observation
	EngineConfig     = domainAnomaly.EngineConfig
	Stats            = domainAnomaly.Stats
	DomainProfile    = domainAnomaly.DomainProfile
	TransitionRecord = domainAnomaly.TransitionRecord
	Config           = config.Config
)

// DefaultConfig returns the full pipeline defaults.
func DefaultConfig() Config {
	return config.Default()
}

// LoadConfig reads a YAML config file, overlaying defaults.
func LoadConfig(path string) (Config, error) {
	return config.Load(path)
}

// Result is the outcome of observing one input.
type Result struct {
	// Score is the final anomaly in [0,1].
	Score float64 `json:"score"`

	// Accuracy is the upstream predictor's per-step accuracy.
	Accuracy float64 `json:"accuracy"`

	// SemanticSimilarity is the similarity to the previous input, nil on
	// the first observation.
	SemanticSimilarity *float64 `json:"semanticSimilarity,omitempty"`

	// ActiveBits is the number of set bits in the encoded pattern.
	ActiveBits int `json:"activeBits"`
}

// Detector is the serialized scoring pipeline. Unlike the underlying
// engine, a Detector is safe for concurrent use: an internal mutex provides
// the per-instance serialization the engine's contract requires.
type Detector struct {
	mu        sync.Mutex
	encoder   *encoding.SDREncoder
	predictor *sequence.Predictor
	estimator *semantic.Estimator
	engine    *engineAnomaly.Engine

	prevText string
	hasPrev  bool
}

// NewDetector assembles a pipeline from the configuration.
func NewDetector(cfg Config) *Detector {
	return &Detector{
		encoder:   encoding.NewSDREncoder(cfg.Encoder),
		predictor: sequence.NewPredictor(0),
		estimator: semantic.NewEstimator(cfg.SemanticDimensions, cfg.Encoder.Seed),
		engine:    engineAnomaly.NewEngine(cfg.Engine),
	}
}

// Observe encodes the text, runs the upstream predictor, estimates semantic
// similarity against the previous input, and scores the observation.
func (d *Detector) Observe(text string) Result {
	d.mu.Lock()
	defer d.mu.Unlock()

	pattern := d.encoder.Encode(text)
	prediction := d.predictor.Observe(pattern)

	var sim *float64
	if d.hasPrev {
		s := d.estimator.Similarity(d.prevText, text)
		sim = &s
	}
	d.prevText = text
	d.hasPrev = true

	score := d.engine.Score(Observation{
		Pattern:            pattern,
		Prediction:         prediction,
		SemanticSimilarity: sim,
	})

	return Result{
		Score:              score,
		Accuracy:           prediction.Accuracy,
		SemanticSimilarity: sim,
		ActiveBits:         pattern.ActiveCount(),
	}
}

// Score feeds a pre-encoded observation straight to the engine, for callers
// running their own upstream model.
func (d *Detector) Score(obs Observation) float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.engine.Score(obs)
}

// Stats returns an idempotent snapshot of the engine state.
func (d *Detector) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.engine.Stats()
}

// Transitions returns the recorded domain-transition events, oldest first.
func (d *Detector) Transitions() []TransitionRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.engine.Transitions()
}

// Reset clears the engine, the predictor, and the previous-input state.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.engine.Reset()
	d.predictor.Reset()
	d.prevText = ""
	d.hasPrev = false
}
