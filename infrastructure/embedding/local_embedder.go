// Package embedding provides the local embedding backend. Vectors come
// from the feature-hashing trick rather than a learned model: tokens
// and token bigrams are hashed onto a fixed-width vector with a hash-
// derived sign. Output is deterministic, needs no network call or model
// download, and two texts sharing vocabulary land near each other in
// cosine space, which is what session-scoped recall needs.
package embedding

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"

	"ideaforge/application/ports"
	pkgerrors "ideaforge/pkg/errors"
	"ideaforge/pkg/similarity"
)

// DefaultDimensions is the vector width used when none is configured
const DefaultDimensions = 256

// HashingEmbedder implements the Embedder port with hashed token features
type HashingEmbedder struct {
	dims int
}

var _ ports.Embedder = (*HashingEmbedder)(nil)

// NewHashingEmbedder creates an embedder producing vectors of the given
// width. Vectors of different widths are never comparable.
func NewHashingEmbedder(dims int) *HashingEmbedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &HashingEmbedder{dims: dims}
}

// Embed returns the normalized feature-hash vector for a text
func (e *HashingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil, pkgerrors.NewValidationError("cannot embed empty text")
	}

	vec := make([]float32, e.dims)
	for _, token := range tokens {
		e.addFeature(vec, token)
	}
	// Bigrams keep word order from washing out entirely.
	for i := 0; i+1 < len(tokens); i++ {
		e.addFeature(vec, tokens[i]+" "+tokens[i+1])
	}

	return similarity.Normalize(vec), nil
}

// Dimensions returns the width of produced vectors
func (e *HashingEmbedder) Dimensions() int {
	return e.dims
}

// addFeature hashes a feature onto one vector slot. The top hash bit
// picks the sign so colliding features cancel instead of compounding.
func (e *HashingEmbedder) addFeature(vec []float32, feature string) {
	h := fnv.New64a()
	h.Write([]byte(feature))
	sum := h.Sum64()

	idx := int(sum % uint64(e.dims))
	if sum>>63 == 1 {
		vec[idx]--
	} else {
		vec[idx]++
	}
}

// tokenize lowercases and splits on anything that is not a letter or
// digit.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
