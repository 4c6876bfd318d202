package provider

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// HashEmbedder is a deterministic local embedding backend using feature
// hashing over word tokens. Texts sharing vocabulary land near each other in
// cosine space, which is enough for development and tests without network
// access or model downloads. Not a substitute for a real embedding model.
type HashEmbedder struct {
	dimension int
}

// NewHashEmbedder creates a local embedder with the given dimensionality.
func NewHashEmbedder(dimension int) *HashEmbedder {
	if dimension <= 0 {
		dimension = 384
	}
	return &HashEmbedder{dimension: dimension}
}

// Dimension returns the vector dimensionality.
func (h *HashEmbedder) Dimension() int {
	return h.dimension
}

// Close is a no-op for the local backend.
func (h *HashEmbedder) Close() error {
	return nil
}

// Embed maps each text to a normalized hashed bag-of-words vector.
func (h *HashEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = h.embedOne(text)
	}
	return out, nil
}

func (h *HashEmbedder) embedOne(text string) []float32 {
	vec := make([]float32, h.dimension)

	for _, token := range tokenize(text) {
		hasher := fnv.New64a()
		_, _ = hasher.Write([]byte(token))
		sum := hasher.Sum64()

		bucket := int(sum % uint64(h.dimension))
		// Sign bit keeps hash collisions from always adding up.
		if sum>>63 == 0 {
			vec[bucket]++
		} else {
			vec[bucket]--
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		// Empty or punctuation-only text: a fixed unit vector keeps the
		// output well-formed.
		vec[0] = 1
		return vec
	}

	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

var _ Embedder = (*HashEmbedder)(nil)
