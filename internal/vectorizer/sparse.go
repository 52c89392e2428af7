// Package vectorizer encodes feature records as fixed-length vectors laid
// out by a vocabulary snapshot.
package vectorizer

import (
	"math"
	"sort"
)

// SparseVector represents a sparse float64 vector. Indices are kept in
// ascending order by the encoder so equal inputs serialize identically.
type SparseVector struct {
	Indices []int     `json:"indices"`
	Values  []float64 `json:"values"`
	Dim     int       `json:"dim"`
}

// NewSparseVector creates a sparse vector with given dimension.
func NewSparseVector(dim int) SparseVector {
	return SparseVector{Dim: dim, Indices: []int{}, Values: []float64{}}
}

// Sort orders entries by ascending index.
func (sv *SparseVector) Sort() {
	sort.Sort(byIndex{sv})
}

type byIndex struct{ sv *SparseVector }

func (b byIndex) Len() int           { return len(b.sv.Indices) }
func (b byIndex) Less(i, j int) bool { return b.sv.Indices[i] < b.sv.Indices[j] }
func (b byIndex) Swap(i, j int) {
	b.sv.Indices[i], b.sv.Indices[j] = b.sv.Indices[j], b.sv.Indices[i]
	b.sv.Values[i], b.sv.Values[j] = b.sv.Values[j], b.sv.Values[i]
}

// ToDense converts to a dense float64 slice of length Dim.
func (sv SparseVector) ToDense() []float64 {
	dense := make([]float64, sv.Dim)
	for i, idx := range sv.Indices {
		if idx < sv.Dim {
			dense[idx] = sv.Values[i]
		}
	}
	return dense
}

// Nnz returns the number of non-zero entries.
func (sv SparseVector) Nnz() int {
	return len(sv.Indices)
}

// ConcatSparse concatenates multiple sparse vectors with offsets into a single vector.
func ConcatSparse(vectors []SparseVector) SparseVector {
	totalDim := 0
	totalNnz := 0
	for _, v := range vectors {
		totalDim += v.Dim
		totalNnz += v.Nnz()
	}
	result := SparseVector{
		Indices: make([]int, 0, totalNnz),
		Values:  make([]float64, 0, totalNnz),
		Dim:     totalDim,
	}
	offset := 0
	for _, v := range vectors {
		for i, idx := range v.Indices {
			result.Indices = append(result.Indices, idx+offset)
			result.Values = append(result.Values, v.Values[i])
		}
		offset += v.Dim
	}
	return result
}

// L2Norm returns the L2 norm of the sparse vector.
func (sv SparseVector) L2Norm() float64 {
	var sum float64
	for _, v := range sv.Values {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// Normalize scales the vector to unit L2 norm. Zero vectors are unchanged.
func (sv *SparseVector) Normalize() {
	norm := sv.L2Norm()
	if norm == 0 {
		return
	}
	for i := range sv.Values {
		sv.Values[i] /= norm
	}
}
