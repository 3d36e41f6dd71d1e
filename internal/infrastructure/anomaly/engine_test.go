package anomaly

import (
	"reflect"
	"testing"

	domainAnomaly "github.com/MRIIOT/llm-cmp-sub005/internal/domain/anomaly"
)

func floatPtr(v float64) *float64 { return &v }

// observation builds an input whose prediction signal is non-degenerate
// (the pattern itself is used as the predicted vector).
func observation(p domainAnomaly.Pattern, accuracy float64) domainAnomaly.Observation {
	return domainAnomaly.Observation{
		Pattern: p,
		Prediction: domainAnomaly.PredictionResult{
			Accuracy:  accuracy,
			Predicted: p.Clone(),
		},
	}
}

func newTestEngine() *Engine {
	return NewEngine(domainAnomaly.EngineConfig{
		DomainDecayRate:     0.95,
		ActivationThreshold: 0.25,
	})
}

func TestScoreBounded(t *testing.T) {
	patterns := []domainAnomaly.Pattern{
		disjointPattern(0, 100, 4),
		disjointPattern(1, 100, 4),
		disjointPattern(0, 100, 4),
		disjointPattern(2, 100, 4),
	}
	accuracies := []float64{0, 0.1, 0.5, 0.9, 1}
	semantics := []*float64{nil, floatPtr(0.1), floatPtr(0.5), floatPtr(0.9)}

	e := newTestEngine()
	for _, p := range patterns {
		for _, acc := range accuracies {
			for _, sem := range semantics {
				obs := observation(p, acc)
				obs.SemanticSimilarity = sem
				score := e.Score(obs)
				if score < 0 || score > 1 {
					t.Fatalf("score out of bounds: %.4f (accuracy=%.1f)", score, acc)
				}
			}
		}
	}
}

func TestStatsIdempotent(t *testing.T) {
	e := newTestEngine()
	e.Score(observation(disjointPattern(0, 100, 4), 0.7))
	e.Score(observation(disjointPattern(0, 100, 4), 0.8))
	e.Score(observation(disjointPattern(1, 100, 4), 0.3))

	first := e.Stats()
	second := e.Stats()

	if !reflect.DeepEqual(first, second) {
		t.Errorf("stats changed without an intervening score:\n%+v\n%+v", first, second)
	}
}

func TestResetCompleteness(t *testing.T) {
	e := newTestEngine()
	for i := 0; i < 5; i++ {
		e.Score(observation(disjointPattern(i, 100, 4), 0.4))
	}
	e.Score(observation(disjointPattern(0, 100, 4), 0.9))

	e.Reset()

	stats := e.Stats()
	if stats.DomainCount != 0 {
		t.Errorf("expected 0 domains after reset, got %d", stats.DomainCount)
	}
	if len(stats.ActiveDomains) != 0 {
		t.Errorf("expected empty active set after reset, got %v", stats.ActiveDomains)
	}
	if stats.TransitionCount != 0 {
		t.Errorf("expected 0 transitions after reset, got %d", stats.TransitionCount)
	}
	if stats.AverageAnomaly != 0 {
		t.Errorf("expected 0 average after reset, got %.4f", stats.AverageAnomaly)
	}
}

func TestScoreTotalFailureFallback(t *testing.T) {
	tests := []struct {
		name     string
		semantic *float64
		expected float64
	}{
		{"no semantic similarity", nil, 0.85},
		{"familiar semantics", floatPtr(0.6), 0.7},
		{"foreign semantics", floatPtr(0.1), 0.95},
		{"middling semantics", floatPtr(0.3), 0.85},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine()
			e.Score(observation(disjointPattern(0, 100, 4), 0.8))
			before := e.Stats()

			obs := domainAnomaly.Observation{
				Pattern: disjointPattern(1, 100, 4),
				Prediction: domainAnomaly.PredictionResult{
					Accuracy:  0.2,
					Predicted: make(domainAnomaly.Pattern, 100),
				},
				SemanticSimilarity: tt.semantic,
			}
			score := e.Score(obs)

			if !almostEqual(score, tt.expected) {
				t.Errorf("expected fallback %.2f, got %.4f", tt.expected, score)
			}

			// The fallback path bypasses every state update.
			after := e.Stats()
			if !reflect.DeepEqual(before, after) {
				t.Errorf("fallback mutated engine state:\n%+v\n%+v", before, after)
			}
		})
	}
}

func TestFirstDomainCreation(t *testing.T) {
	e := newTestEngine()

	e.Score(observation(disjointPattern(0, 100, 4), 0.9))

	stats := e.Stats()
	if stats.DomainCount != 1 {
		t.Fatalf("expected exactly 1 domain, got %d", stats.DomainCount)
	}
	profile := stats.DomainProfiles[0]
	if !almostEqual(profile.Strength, 0.5) {
		t.Errorf("expected strength 0.5, got %.4f", profile.Strength)
	}
	if profile.QueryCount != 1 {
		t.Errorf("expected queryCount 1, got %d", profile.QueryCount)
	}
}

func TestReinforcementMonotonicity(t *testing.T) {
	e := newTestEngine()
	p := disjointPattern(0, 100, 4)

	e.Score(observation(p, 0.9))
	prev := e.Stats().DomainProfiles[0].Strength

	for i := 0; i < 15; i++ {
		e.Score(observation(p, 0.9))
		strength := e.Stats().DomainProfiles[0].Strength
		if strength < prev {
			t.Fatalf("iteration %d: strength decreased %.4f -> %.4f", i, prev, strength)
		}
		if strength > 1 {
			t.Fatalf("iteration %d: strength exceeded 1: %.4f", i, strength)
		}
		prev = strength
	}
	if !almostEqual(prev, 1) {
		t.Errorf("expected strength to reach the 1.0 ceiling, got %.4f", prev)
	}
}

func TestDecayOnlyWhenInactive(t *testing.T) {
	e := newTestEngine()
	p1 := disjointPattern(0, 100, 4)
	p2 := disjointPattern(1, 100, 4)

	e.Score(observation(p1, 0.9))
	d1 := e.Stats().DomainProfiles[0].ID

	// Creating D2 decays D1 once.
	e.Score(observation(p2, 0.9))

	strengths := profileStrengths(e)
	if !almostEqual(strengths[d1], 0.475) {
		t.Errorf("expected D1 decayed to 0.475, got %.4f", strengths[d1])
	}

	// Matching D1 reinforces it and decays D2; the matched domain is never
	// decayed in the same call.
	e.Score(observation(p1, 0.9))

	strengths = profileStrengths(e)
	if !almostEqual(strengths[d1], 0.475*1.1) {
		t.Errorf("expected D1 reinforced to %.4f, got %.4f", 0.475*1.1, strengths[d1])
	}
	for id, s := range strengths {
		if id != d1 && !almostEqual(s, 0.475) {
			t.Errorf("expected D2 decayed to 0.475, got %.4f", s)
		}
	}
}

func profileStrengths(e *Engine) map[string]float64 {
	out := make(map[string]float64)
	for _, p := range e.Stats().DomainProfiles {
		out[p.ID] = p.Strength
	}
	return out
}

func TestEvictionCap(t *testing.T) {
	e := newTestEngine()

	for i := 0; i < 25; i++ {
		e.Score(observation(disjointPattern(i, 200, 4), 0.4))
		if i >= 20 {
			if count := e.Stats().DomainCount; count > domainAnomaly.DomainCap {
				t.Fatalf("observation %d: domain count %d exceeds cap", i, count)
			}
		}
	}
}

func TestTransitionDetection(t *testing.T) {
	e := newTestEngine()
	p1 := disjointPattern(0, 100, 4)
	p2 := disjointPattern(1, 100, 4)

	// First observation: active set stays empty, no transition.
	e.Score(observation(p1, 0.9))
	if got := e.Stats().TransitionCount; got != 0 {
		t.Fatalf("expected 0 transitions, got %d", got)
	}

	// Second observation activates the new domain: one transition.
	e.Score(observation(p1, 0.9))
	if got := e.Stats().TransitionCount; got != 1 {
		t.Fatalf("expected 1 transition, got %d", got)
	}

	// Identical consecutive active sets produce none.
	e.Score(observation(p1, 0.9))
	if got := e.Stats().TransitionCount; got != 1 {
		t.Fatalf("expected transition count to stay 1, got %d", got)
	}

	// Leaving the known domain records another.
	e.Score(observation(p2, 0.9))
	if got := e.Stats().TransitionCount; got != 2 {
		t.Fatalf("expected 2 transitions, got %d", got)
	}

	records := e.Transitions()
	if len(records) != 2 {
		t.Fatalf("expected 2 transition records, got %d", len(records))
	}
	if len(records[0].From) != 0 || len(records[0].To) != 1 {
		t.Errorf("first record should be empty->one, got %v -> %v",
			records[0].From, records[0].To)
	}
	if len(records[1].From) != 1 || len(records[1].To) != 0 {
		t.Errorf("second record should be one->empty, got %v -> %v",
			records[1].From, records[1].To)
	}
}

func TestEndToEndScenario(t *testing.T) {
	e := newTestEngine()
	p1 := disjointPattern(0, 100, 4)
	p2 := disjointPattern(1, 100, 4)

	// P1 creates D1.
	score := e.Score(observation(p1, 0.8))
	if !almostEqual(score, 0.2) {
		t.Errorf("call 1: expected raw anomaly 0.2, got %.4f", score)
	}
	stats := e.Stats()
	if stats.DomainCount != 1 {
		t.Fatalf("call 1: expected 1 domain, got %d", stats.DomainCount)
	}
	d1 := stats.DomainProfiles[0].ID

	// P1 again: exact repeat gives similarity 1; transition from the empty
	// history blends 0.6*0.2 with the halved domain anomaly.
	score = e.Score(observation(p1, 0.9))
	expected := 0.6*0.2 + 0.4*(0.1*(1-1.0*0.5))
	if !almostEqual(score, expected) {
		t.Errorf("call 2: expected %.4f, got %.4f", expected, score)
	}
	stats = e.Stats()
	if stats.DomainProfiles[0].QueryCount != 2 {
		t.Errorf("call 2: expected queryCount 2, got %d", stats.DomainProfiles[0].QueryCount)
	}
	if !almostEqual(stats.DomainProfiles[0].Strength, 0.55) {
		t.Errorf("call 2: expected strength 0.55, got %.4f", stats.DomainProfiles[0].Strength)
	}
	if stats.TransitionCount != 1 {
		t.Errorf("call 2: expected 1 transition, got %d", stats.TransitionCount)
	}

	// P2 is fully dissimilar with high raw anomaly: novel, creates D2,
	// decays D1, records the leave-all-domains transition.
	score = e.Score(observation(p2, 0.1))
	if !almostEqual(score, 0.9) {
		t.Errorf("call 3: expected novelty score 0.9, got %.4f", score)
	}
	stats = e.Stats()
	if stats.DomainCount != 2 {
		t.Fatalf("call 3: expected 2 domains, got %d", stats.DomainCount)
	}
	if stats.TransitionCount != 2 {
		t.Errorf("call 3: expected 2 transitions, got %d", stats.TransitionCount)
	}
	strengths := profileStrengths(e)
	if !almostEqual(strengths[d1], 0.55*0.95) {
		t.Errorf("call 3: expected D1 decayed to %.4f, got %.4f", 0.55*0.95, strengths[d1])
	}
	for id, s := range strengths {
		if id != d1 && !almostEqual(s, 0.5) {
			t.Errorf("call 3: expected fresh D2 at 0.5, got %.4f", s)
		}
	}
}

func TestSemanticCorrection(t *testing.T) {
	base := func() (*Engine, domainAnomaly.Pattern) {
		e := newTestEngine()
		p := disjointPattern(0, 100, 4)
		e.Score(observation(p, 0.8))
		return e, p
	}

	// Baseline second call: transition blend without semantic input.
	e, p := base()
	baseline := e.Score(observation(p, 0.5))

	// High similarity scales the score down.
	e, p = base()
	obs := observation(p, 0.5)
	obs.SemanticSimilarity = floatPtr(0.9)
	down := e.Score(obs)
	if !almostEqual(down, baseline*(1-(0.9-0.7)*0.5)) {
		t.Errorf("expected %.4f scaled down to %.4f, got %.4f",
			baseline, baseline*0.9, down)
	}

	// Low similarity on a non-novel observation scales up, clamped to 1.
	e, p = base()
	obs = observation(p, 0.5)
	obs.SemanticSimilarity = floatPtr(0.1)
	up := e.Score(obs)
	if !almostEqual(up, baseline*1.3) {
		t.Errorf("expected %.4f scaled up to %.4f, got %.4f",
			baseline, baseline*1.3, up)
	}
}

func TestNoveltyRequiresHighRawAnomaly(t *testing.T) {
	// An unmatched pattern with low raw anomaly is not novel; the score is
	// the (unsmoothed, short-window) domain anomaly.
	e := newTestEngine()
	score := e.Score(observation(disjointPattern(0, 100, 4), 0.6))
	if !almostEqual(score, 0.4) {
		t.Errorf("expected 0.4, got %.4f", score)
	}

	// The same pattern with raw anomaly above 0.5 takes the novelty floor.
	e = newTestEngine()
	score = e.Score(observation(disjointPattern(0, 100, 4), 0.35))
	if !almostEqual(score, 0.8) {
		t.Errorf("expected novelty floor 0.8, got %.4f", score)
	}
}

func TestTemporalSmoothingDampsSpikes(t *testing.T) {
	e := newTestEngine()
	p := disjointPattern(0, 100, 4)

	// Build up a stable window of low scores on a well-matched domain.
	var lastScores []float64
	for i := 0; i < 6; i++ {
		lastScores = append(lastScores, e.Score(observation(p, 0.9)))
	}

	// A one-step accuracy drop on the same domain is damped below its
	// unsmoothed value.
	n := len(lastScores)
	unsmoothed := (1 - 0.3) * (1 - 1.0*0.5)
	smoothed := 0.5*unsmoothed + 0.3*lastScores[n-1] + 0.2*lastScores[n-2]
	got := e.Score(observation(p, 0.3))
	if !almostEqual(got, smoothed) {
		t.Errorf("expected smoothed %.4f, got %.4f", smoothed, got)
	}
	if got >= unsmoothed {
		t.Errorf("smoothing failed to damp the spike: %.4f >= %.4f", got, unsmoothed)
	}
}
