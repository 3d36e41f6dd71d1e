package anomaly

import (
	"math"
	"sort"

	domainAnomaly "github.com/MRIIOT/llm-cmp-sub005/internal/domain/anomaly"
)

const (
	// strongMatchThreshold is the similarity above which the best domain
	// match starts reducing the raw anomaly.
	strongMatchThreshold = 0.4

	// matchReduction caps how much a perfect match can reduce raw anomaly.
	matchReduction = 0.5

	// noveltyScore is the floor anomaly for a genuinely novel observation.
	noveltyScore = 0.8

	// Transition anomaly per category of active-set change.
	transitionToUnknown = 0.7 // left every known domain
	transitionBetween   = 0.4 // switched between non-empty known sets
	transitionFirst     = 0.2 // entered the first domain from empty history

	transitionWeight = 0.6
	domainWeight     = 0.4

	// Fallback novelty scores for a degenerate upstream signal.
	fallbackDefault      = 0.85
	fallbackFamiliar     = 0.7
	fallbackUnfamiliar   = 0.95
	fallbackFamiliarSim  = 0.5
	fallbackForeignSim   = 0.2

	// Semantic correction bounds.
	semanticHigh = 0.7
	semanticLow  = 0.3
)

// Engine is the stateful anomaly scorer. It is not safe for concurrent use;
// callers must serialize Score, Stats, and Reset on the same instance (one
// engine per stream, or an external mutex).
type Engine struct {
	config     domainAnomaly.EngineConfig
	store      *Store
	history    *History
	prevActive map[string]struct{}
}

// NewEngine creates an engine with the given configuration; out-of-range
// fields fall back to defaults.
func NewEngine(config domainAnomaly.EngineConfig) *Engine {
	return &Engine{
		config:     config.Normalize(),
		store:      NewStore(),
		history:    NewHistory(),
		prevActive: make(map[string]struct{}),
	}
}

// Score computes the final anomaly for one observation and updates every
// piece of engine state in step with the call.
func (e *Engine) Score(obs domainAnomaly.Observation) float64 {
	rawAnomaly := 1 - obs.Prediction.Accuracy

	// A prediction with no active bit carries no routing information.
	// Return the fallback novelty without touching any state.
	if obs.Prediction.TotalFailure() {
		return fallbackNovelty(obs.SemanticSimilarity)
	}

	ranked := e.store.Rank(obs.Pattern)
	active := make(map[string]struct{})
	for _, m := range ranked {
		if m.Similarity > e.config.ActivationThreshold {
			active[m.DomainID] = struct{}{}
		}
	}

	isTransition := !sameSet(active, e.prevActive)

	domainScore := rawAnomaly
	if len(ranked) > 0 && ranked[0].Similarity > strongMatchThreshold {
		domainScore *= 1 - ranked[0].Similarity*matchReduction
	}

	var transitionScore float64
	if isTransition {
		switch {
		case len(active) == 0:
			transitionScore = transitionToUnknown
		case len(e.prevActive) == 0:
			transitionScore = transitionFirst
		default:
			transitionScore = transitionBetween
		}
	}

	isNovel := len(active) == 0 && rawAnomaly > 0.5

	var final float64
	switch {
	case isNovel:
		final = math.Max(noveltyScore, rawAnomaly)
	case isTransition:
		final = transitionWeight*transitionScore + domainWeight*domainScore
	default:
		final = e.history.Smooth(domainScore)
	}

	if sim := obs.SemanticSimilarity; sim != nil {
		switch {
		case *sim > semanticHigh:
			final *= 1 - (*sim-semanticHigh)*0.5
		case *sim < semanticLow && !isNovel:
			final = math.Min(1, final*1.3)
		}
	}
	final = clamp01(final)

	for id := range active {
		e.store.Reinforce(id, obs.Pattern)
	}
	// Decay before any creation so a freshly created domain keeps its
	// initial strength through its own call.
	e.store.DecayExcept(active, e.config.DomainDecayRate)
	if len(active) == 0 && allBelow(ranked, e.config.ActivationThreshold) {
		e.store.Create(obs.Pattern)
	}

	if isTransition {
		e.history.RecordTransition(setIDs(e.prevActive), setIDs(active))
	}
	e.prevActive = active

	e.history.Push(final)
	return final
}

// Stats returns a read-only snapshot of engine state. Calling it twice
// without an intervening Score yields identical results.
func (e *Engine) Stats() domainAnomaly.Stats {
	return domainAnomaly.Stats{
		DomainCount:     e.store.Count(),
		ActiveDomains:   setIDs(e.prevActive),
		TransitionCount: e.history.TransitionCount(),
		AverageAnomaly:  e.history.Average(),
		DomainProfiles:  e.store.Profiles(),
	}
}

// Transitions returns the recorded transition events, oldest first.
func (e *Engine) Transitions() []domainAnomaly.TransitionRecord {
	return e.history.Transitions()
}

// Reset clears all engine state back to the initial empty configuration.
func (e *Engine) Reset() {
	e.store.Reset()
	e.history.Reset()
	e.prevActive = make(map[string]struct{})
}

// fallbackNovelty maps an optional semantic similarity onto the fallback
// score for a total prediction failure.
func fallbackNovelty(sim *float64) float64 {
	if sim == nil {
		return fallbackDefault
	}
	switch {
	case *sim > fallbackFamiliarSim:
		return fallbackFamiliar
	case *sim < fallbackForeignSim:
		return fallbackUnfamiliar
	default:
		return fallbackDefault
	}
}

func allBelow(matches []Match, threshold float64) bool {
	for _, m := range matches {
		if m.Similarity >= threshold {
			return false
		}
	}
	return true
}

func sameSet(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if _, ok := b[id]; !ok {
			return false
		}
	}
	return true
}

func setIDs(set map[string]struct{}) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
