package anomaly

import (
	"math"
	"time"

	"github.com/google/uuid"
)

const (
	// DomainHistoryCap bounds the per-domain pattern history (FIFO).
	DomainHistoryCap = 20

	// InitialStrength is the strength assigned to a freshly created domain.
	InitialStrength = 0.5

	// ReinforceFactor multiplies strength on every reinforcement, capped at 1.
	ReinforceFactor = 1.1
)

// Domain is an online-learned cluster of similar patterns with a decaying
// confidence ("strength"). Owned exclusively by the Store.
type Domain struct {
	ID         string    `json:"id"`
	Patterns   []Pattern `json:"patterns"`
	Centroid   []float64 `json:"centroid"`
	LastSeen   time.Time `json:"lastSeen"`
	Strength   float64   `json:"strength"`
	QueryCount int       `json:"queryCount"`
}

// NewDomain creates a domain seeded with a single pattern. The centroid is
// the pattern cast to {0,1}.
func NewDomain(p Pattern) *Domain {
	centroid := make([]float64, len(p))
	for i, b := range p {
		if b {
			centroid[i] = 1
		}
	}
	return &Domain{
		ID:         uuid.New().String(),
		Patterns:   []Pattern{p.Clone()},
		Centroid:   centroid,
		LastSeen:   time.Now(),
		Strength:   InitialStrength,
		QueryCount: 1,
	}
}

// Reinforce appends the pattern to the bounded history, bumps strength and
// usage, and recomputes the centroid from the stored history.
func (d *Domain) Reinforce(p Pattern) {
	d.Patterns = append(d.Patterns, p.Clone())
	if len(d.Patterns) > DomainHistoryCap {
		d.Patterns = d.Patterns[1:]
	}
	d.LastSeen = time.Now()
	d.QueryCount++
	d.Strength = math.Min(1.0, d.Strength*ReinforceFactor)
	d.recomputeCentroid()
}

// Decay multiplies strength by the configured decay rate. Called once per
// observation for every domain outside the active set.
func (d *Domain) Decay(rate float64) {
	d.Strength *= rate
}

// Recent returns up to n of the most recently stored patterns, newest last.
func (d *Domain) Recent(n int) []Pattern {
	if n <= 0 || len(d.Patterns) == 0 {
		return nil
	}
	if n > len(d.Patterns) {
		n = len(d.Patterns)
	}
	return d.Patterns[len(d.Patterns)-n:]
}

// recomputeCentroid sets each centroid position to the fraction of stored
// patterns with that bit set. Dimension follows the newest pattern; shorter
// historical patterns simply contribute zeros past their length.
func (d *Domain) recomputeCentroid() {
	dims := len(d.Patterns[len(d.Patterns)-1])
	centroid := make([]float64, dims)
	for _, pat := range d.Patterns {
		for i := 0; i < dims && i < len(pat); i++ {
			if pat[i] {
				centroid[i]++
			}
		}
	}
	for i := range centroid {
		centroid[i] /= float64(len(d.Patterns))
	}
	d.Centroid = centroid
}
