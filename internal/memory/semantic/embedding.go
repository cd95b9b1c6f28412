package semantic

import (
	"math"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Dimension is the fixed length of every embedding.
const Dimension = 128

// Embed maps text to a deterministic 128-d vector: the first 128 runes of the
// lower-cased text as code point / 256, one marker slot chosen by xxhash64 of
// the lower-cased UTF-8 bytes set to 1.0, then L2 normalization when the norm
// is non-zero. The marker index is stable across processes.
func Embed(text string) []float64 {
	text = strings.ToLower(text)
	vec := make([]float64, Dimension)
	i := 0
	for _, r := range text {
		if i >= Dimension {
			break
		}
		vec[i] = float64(r) / 256.0
		i++
	}
	vec[xxhash.Sum64String(text)%Dimension] = 1.0

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

// Cosine returns the cosine similarity of a and b clamped to [-1, 1], or 0
// when either has zero norm.
func Cosine(a, b []float64) float64 {
	var dot, na, nb float64
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	for i := n; i < len(a); i++ {
		na += a[i] * a[i]
	}
	for i := n; i < len(b); i++ {
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	// sqrt(na*nb) keeps a vector's similarity with itself at exactly 1.
	sim := dot / math.Sqrt(na*nb)
	return math.Max(-1, math.Min(1, sim))
}
