package embedding

import (
	"context"
	"crypto/sha256"
)

// DefaultHashDimensions is the vector length produced by HashProvider when
// no dimension is configured.
const DefaultHashDimensions = 64

// HashProvider derives a deterministic pseudo-embedding from a SHA-256
// digest of the input text. It carries no semantic signal beyond exact
// content identity and exists for offline development and tests, where a
// real embedding model is unavailable.
type HashProvider struct {
	Dimensions int
}

// NewHashProvider constructs a hash embedder with the given vector length.
func NewHashProvider(dimensions int) *HashProvider {
	if dimensions <= 0 {
		dimensions = DefaultHashDimensions
	}
	return &HashProvider{Dimensions: dimensions}
}

// Embed maps the digest bytes onto a fixed-length vector with components
// in [-1, 1].
func (p *HashProvider) Embed(_ context.Context, text string) ([]float64, error) {
	digest := sha256.Sum256([]byte(text))

	vec := make([]float64, p.Dimensions)
	for i := range vec {
		b := digest[i%len(digest)]
		vec[i] = float64(b)/127.5 - 1.0
	}

	return vec, nil
}
