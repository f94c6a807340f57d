package embedding

import (
	"context"
	"math"
)

// Provider describes a model capable of turning text into a fixed-length
// semantic fingerprint. Implementations must be deterministic: the same
// input always yields the same vector within one provider instance.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Cosine computes the cosine similarity of two vectors. It returns 0 when
// either vector has zero magnitude, and is symmetric in its arguments.
func Cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, magA, magB float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
	}
	for _, v := range a {
		magA += v * v
	}
	for _, v := range b {
		magB += v * v
	}

	if magA == 0 || magB == 0 {
		return 0
	}

	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
