// Package anomaly implements the online semantic anomaly engine.
package anomaly

import (
	"math"

	domainAnomaly "github.com/MRIIOT/llm-cmp-sub005/internal/domain/anomaly"
)

const (
	// centroidWeight and recencyWeight blend the two similarity signals:
	// cosine against the centroid captures the domain's long-run shape,
	// Jaccard against recent members rewards near-exact repeats even after
	// the centroid has drifted.
	centroidWeight = 0.6
	recencyWeight  = 0.4

	// recencyDepth is how many of the newest history patterns the Jaccard
	// signal considers.
	recencyDepth = 5
)

// Match pairs a domain id with its combined similarity to a pattern.
type Match struct {
	DomainID   string
	Similarity float64
}

// Cosine compares a binary pattern (true bits as 1.0) against a real-valued
// centroid. Returns 0 for mismatched dimensions or zero-norm vectors.
func Cosine(p domainAnomaly.Pattern, centroid []float64) float64 {
	if len(p) != len(centroid) || len(p) == 0 {
		return 0
	}

	var dot, normP, normC float64
	for i, b := range p {
		if b {
			dot += centroid[i]
			normP++
		}
		normC += centroid[i] * centroid[i]
	}

	if normP == 0 || normC == 0 {
		return 0
	}

	return dot / (math.Sqrt(normP) * math.Sqrt(normC))
}

// Jaccard computes |intersection| / |union| over positions where at least
// one vector is true. Returns 0 for an empty union or mismatched lengths.
func Jaccard(a, b domainAnomaly.Pattern) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	intersection, union := 0, 0
	for i := range a {
		if a[i] || b[i] {
			union++
			if a[i] && b[i] {
				intersection++
			}
		}
	}

	if union == 0 {
		return 0
	}

	return float64(intersection) / float64(union)
}

// Combined computes the blended similarity between a pattern and a domain.
func Combined(p domainAnomaly.Pattern, d *domainAnomaly.Domain) float64 {
	var bestRecent float64
	for _, recent := range d.Recent(recencyDepth) {
		if j := Jaccard(p, recent); j > bestRecent {
			bestRecent = j
		}
	}
	return centroidWeight*Cosine(p, d.Centroid) + recencyWeight*bestRecent
}
