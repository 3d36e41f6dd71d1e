// Package semantic provides the optional semantic-similarity input to the
// anomaly engine. It stands in for an LLM-backed estimator using local
// deterministic hash embeddings.
package semantic

import (
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

const defaultDimensions = 128

// Estimator computes a semantic similarity in [0,1] between two texts.
type Estimator struct {
	dimensions int
	seed       uint64
}

// NewEstimator creates an estimator; non-positive dimensions fall back to
// the default.
func NewEstimator(dimensions int, seed uint64) *Estimator {
	if dimensions <= 0 {
		dimensions = defaultDimensions
	}
	return &Estimator{dimensions: dimensions, seed: seed}
}

// Similarity embeds both texts and maps their cosine into [0,1].
func (e *Estimator) Similarity(a, b string) float64 {
	ea := e.embed(a)
	eb := e.embed(b)

	var dot, normA, normB float64
	for i := range ea {
		dot += ea[i] * eb[i]
		normA += ea[i] * ea[i]
		normB += eb[i] * eb[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	sim := (cos + 1) / 2
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}

// embed sums a deterministic FNV-derived vector per token.
func (e *Estimator) embed(text string) []float64 {
	embedding := make([]float64, e.dimensions)

	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	for _, token := range tokens {
		h := fnv.New64a()
		h.Write([]byte{byte(e.seed >> 56), byte(e.seed >> 48),
			byte(e.seed >> 40), byte(e.seed >> 32),
			byte(e.seed >> 24), byte(e.seed >> 16),
			byte(e.seed >> 8), byte(e.seed)})
		h.Write([]byte(token))
		hash := h.Sum64()

		for i := 0; i < e.dimensions; i++ {
			h2 := fnv.New64a()
			h2.Write([]byte{byte(hash >> 56), byte(hash >> 48),
				byte(hash >> 40), byte(hash >> 32),
				byte(hash >> 24), byte(hash >> 16),
				byte(hash >> 8), byte(hash)})
			h2.Write([]byte{byte(i >> 8), byte(i)})
			embedding[i] += float64(h2.Sum64())/float64(math.MaxUint64)*2 - 1
		}
	}

	return embedding
}
