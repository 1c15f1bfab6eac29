// Package index provides an immutable in-memory nearest-neighbor index over
// the catalog item vectors. It is built once at startup and safe for
// unsynchronized concurrent reads.
package index

import (
	"fmt"
	"math"
	"sort"

	"github.com/osool-guide/codifier/internal/domain"
)

// Hit is a single search match: the catalog position of the item and its
// cosine similarity to the query.
type Hit struct {
	Position int
	Score    float64
}

// Flat is a brute-force cosine index. Rows are unit-normalized at
// construction, so the dot product of a normalized query against a row equals
// their cosine similarity.
type Flat struct {
	dim     int
	vectors [][]float32
}

// New builds a flat index over the given vectors. Every vector must have the
// declared dimensionality.
func New(dim int, vectors [][]float32) (*Flat, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("index dimension must be positive, got %d", dim)
	}
	rows := make([][]float32, len(vectors))
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector %d has %d dimensions, index expects %d: %w",
				i, len(v), dim, domain.ErrVectorDimMismatch)
		}
		rows[i] = normalize(v)
	}
	return &Flat{dim: dim, vectors: rows}, nil
}

// Len returns the number of indexed vectors.
func (f *Flat) Len() int { return len(f.vectors) }

// Dimension returns the index dimensionality.
func (f *Flat) Dimension() int { return f.dim }

// Search returns up to k hits ordered by descending similarity, ties broken
// by ascending position. k <= 0 yields no hits.
func (f *Flat) Search(vector []float32, k int) ([]Hit, error) {
	if len(vector) != f.dim {
		return nil, fmt.Errorf("query has %d dimensions, index expects %d: %w",
			len(vector), f.dim, domain.ErrVectorDimMismatch)
	}
	if k <= 0 || len(f.vectors) == 0 {
		return nil, nil
	}

	q := normalize(vector)
	hits := make([]Hit, len(f.vectors))
	for i, row := range f.vectors {
		hits[i] = Hit{Position: i, Score: dot(q, row)}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Position < hits[j].Position
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// normalize returns a unit-length copy of v. Zero vectors are returned as-is.
func normalize(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
