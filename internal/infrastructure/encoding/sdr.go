// Package encoding provides the sparse distributed representation encoder
// feeding the anomaly engine.
package encoding

import (
	"hash/fnv"
	"strings"
	"unicode"

	domainAnomaly "github.com/MRIIOT/llm-cmp-sub005/internal/domain/anomaly"
)

// SDRConfig configures the hash-based encoder.
type SDRConfig struct {
	// Width is the pattern length in bits.
	Width int `json:"width" yaml:"width"`

	// ActiveBits is the number of bits each token n-gram sets. Total
	// pattern sparsity depends on the token count of the input.
	ActiveBits int `json:"activeBits" yaml:"active_bits"`

	// Seed varies the hash space between independent encoders.
	Seed uint64 `json:"seed" yaml:"seed"`
}

// DefaultSDRConfig returns the encoder defaults.
func DefaultSDRConfig() SDRConfig {
	return SDRConfig{
		Width:      512,
		ActiveBits: 8,
	}
}

// SDREncoder deterministically turns text into a fixed-width sparse binary
// pattern. The same input always yields the same pattern, so repeated
// observations of the same text land in the same domain.
type SDREncoder struct {
	config SDRConfig
}

// NewSDREncoder creates an encoder; out-of-range fields fall back to
// defaults.
func NewSDREncoder(config SDRConfig) *SDREncoder {
	def := DefaultSDRConfig()
	if config.Width <= 0 {
		config.Width = def.Width
	}
	if config.ActiveBits <= 0 || config.ActiveBits > config.Width {
		config.ActiveBits = def.ActiveBits
	}
	return &SDREncoder{config: config}
}

// Width returns the pattern length produced by this encoder.
func (e *SDREncoder) Width() int {
	return e.config.Width
}

// Encode hashes token unigrams and bigrams onto the pattern. Empty input
// yields an all-false pattern.
func (e *SDREncoder) Encode(text string) domainAnomaly.Pattern {
	pattern := make(domainAnomaly.Pattern, e.config.Width)

	tokens := tokenize(text)
	for i, token := range tokens {
		e.setBits(pattern, token)
		if i+1 < len(tokens) {
			e.setBits(pattern, token+" "+tokens[i+1])
		}
	}

	return pattern
}

// setBits activates ActiveBits positions derived from successive FNV-1a
// passes over the token.
func (e *SDREncoder) setBits(pattern domainAnomaly.Pattern, token string) {
	for pass := 0; pass < e.config.ActiveBits; pass++ {
		h := fnv.New64a()
		h.Write([]byte{byte(e.config.Seed >> 56), byte(e.config.Seed >> 48),
			byte(e.config.Seed >> 40), byte(e.config.Seed >> 32),
			byte(e.config.Seed >> 24), byte(e.config.Seed >> 16),
			byte(e.config.Seed >> 8), byte(e.config.Seed)})
		h.Write([]byte{byte(pass)})
		h.Write([]byte(token))
		pattern[h.Sum64()%uint64(e.config.Width)] = true
	}
}

// tokenize lowercases and splits on any non-alphanumeric rune.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
