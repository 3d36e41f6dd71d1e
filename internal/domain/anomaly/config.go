package anomaly

import "time"

const (
	// DomainCap is the soft bound on the number of stored domains.
	DomainCap = 20

	// EvictionStrength is the strength below which a domain becomes
	// eligible for eviction when the store exceeds DomainCap.
	EvictionStrength = 0.3

	// WindowCap bounds the rolling window of final anomaly scores.
	WindowCap = 20

	// TransitionHistoryCap bounds the recorded domain-transition events.
	TransitionHistoryCap = 50
)

// EngineConfig holds the tunables the engine recognizes.
type EngineConfig struct {
	// DomainDecayRate is the multiplicative per-observation decay applied
	// to every domain outside the active set. Must be in (0,1).
	DomainDecayRate float64 `json:"domainDecayRate" yaml:"domain_decay_rate"`

	// ActivationThreshold is the minimum combined similarity for a domain
	// to join the active set.
	ActivationThreshold float64 `json:"activationThreshold" yaml:"activation_threshold"`
}

// DefaultEngineConfig returns the engine defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		DomainDecayRate:     0.95,
		ActivationThreshold: 0.25,
	}
}

// Normalize replaces out-of-range fields with their defaults.
func (c EngineConfig) Normalize() EngineConfig {
	def := DefaultEngineConfig()
	if c.DomainDecayRate <= 0 || c.DomainDecayRate >= 1 {
		c.DomainDecayRate = def.DomainDecayRate
	}
	if c.ActivationThreshold <= 0 || c.ActivationThreshold >= 1 {
		c.ActivationThreshold = def.ActivationThreshold
	}
	return c
}

// TransitionRecord captures a change of the active-domain set between two
// consecutive observations.
type TransitionRecord struct {
	From      []string  `json:"from"`
	To        []string  `json:"to"`
	Timestamp time.Time `json:"timestamp"`
}

// DomainProfile is a read-only diagnostic view of one domain.
type DomainProfile struct {
	ID         string    `json:"id"`
	Strength   float64   `json:"strength"`
	QueryCount int       `json:"queryCount"`
	LastSeen   time.Time `json:"lastSeen"`
}

// Stats is an idempotent snapshot of engine state.
type Stats struct {
	DomainCount     int             `json:"domainCount"`
	ActiveDomains   []string        `json:"activeDomains"`
	TransitionCount int             `json:"transitionCount"`
	AverageAnomaly  float64         `json:"averageAnomaly"`
	DomainProfiles  []DomainProfile `json:"domainProfiles"`
}
