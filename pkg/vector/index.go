// Package vector provides the in-memory nearest-neighbour index behind both retrieval brains.
package vector

import (
	"sort"

	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrDimensionMismatch = goerr.New("vector dimension mismatch")
	ErrEmptyVector       = goerr.New("empty vector")
)

// Neighbor is a search hit. Position is the ordinal of the vector at build time, which callers
// use to look up the record or chunk embedded at the same position.
type Neighbor struct {
	Position int
	Distance float64
}

// Index is an exact (flat) index under squared Euclidean distance. It is immutable after New
// and safe for concurrent Search calls.
type Index struct {
	dim     int
	vectors [][]float32
}

// New builds an index over vectors, keeping their order. All vectors must share one dimension.
func New(vectors [][]float32) (*Index, error) {
	idx := &Index{vectors: make([][]float32, len(vectors))}
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, goerr.Wrap(ErrEmptyVector, "cannot index empty vector", goerr.V("position", i))
		}
		if i == 0 {
			idx.dim = len(v)
		} else if len(v) != idx.dim {
			return nil, goerr.Wrap(ErrDimensionMismatch, "inconsistent vector dimension",
				goerr.V("position", i), goerr.V("expected", idx.dim), goerr.V("actual", len(v)))
		}
		idx.vectors[i] = append([]float32(nil), v...)
	}
	return idx, nil
}

// Len returns the number of indexed vectors.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return len(x.vectors)
}

// Dim returns the vector dimension, 0 for an empty index.
func (x *Index) Dim() int {
	if x == nil {
		return 0
	}
	return x.dim
}

// Search returns up to k nearest vectors ordered by ascending distance, ties broken by position.
func (x *Index) Search(query []float32, k int) ([]Neighbor, error) {
	if x.Len() == 0 || k <= 0 {
		return nil, nil
	}
	if len(query) != x.dim {
		return nil, goerr.Wrap(ErrDimensionMismatch, "query dimension does not match index",
			goerr.V("expected", x.dim), goerr.V("actual", len(query)))
	}

	hits := make([]Neighbor, len(x.vectors))
	for i, v := range x.vectors {
		hits[i] = Neighbor{Position: i, Distance: SquaredL2(query, v)}
	}
	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Distance < hits[b].Distance
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// Nearest returns the single closest vector.
func (x *Index) Nearest(query []float32) (Neighbor, bool, error) {
	hits, err := x.Search(query, 1)
	if err != nil || len(hits) == 0 {
		return Neighbor{}, false, err
	}
	return hits[0], true, nil
}

// SquaredL2 is the squared Euclidean distance of two equal-length vectors.
func SquaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
