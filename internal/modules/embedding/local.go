package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

// Local is a deterministic feature-hashing term-frequency embedder.
// Tokens are hashed into a fixed number of buckets and the resulting
// term-frequency vector is L2-normalized, so identical text always maps
// to an identical unit vector. It needs no model files or preparation
// phase, which makes it the default provider for development and tests.
type Local struct {
	dimension    int
	tokenPattern *regexp.Regexp
}

// NewLocal creates a local embedder with the given vector dimension.
func NewLocal(dimension int) *Local {
	if dimension <= 0 {
		dimension = 384
	}
	return &Local{
		dimension:    dimension,
		tokenPattern: regexp.MustCompile(`[a-z0-9]+`),
	}
}

// Dimension returns the fixed vector length.
func (l *Local) Dimension() int { return l.dimension }

// Embed maps each text to its hashed term-frequency vector.
func (l *Local) Embed(_ context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vectors[i] = l.embedOne(text)
	}
	return vectors, nil
}

func (l *Local) embedOne(text string) []float64 {
	vector := make([]float64, l.dimension)

	tokens := l.tokenPattern.FindAllString(strings.ToLower(text), -1)
	for _, tok := range tokens {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		vector[int(h.Sum32())%l.dimension]++
	}

	// L2 normalize so cosine distance reduces to dot products.
	norm := 0.0
	for _, v := range vector {
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vector {
			vector[i] /= norm
		}
	}

	return vector
}
