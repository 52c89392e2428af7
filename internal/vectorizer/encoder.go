package vectorizer

import (
	"fmt"
	"math"
	"strings"

	"github.com/DennisG8153/apkfeat/feature"
	"github.com/DennisG8153/apkfeat/vocab"
)

// Mode selects the value written for a present token.
type Mode string

const (
	// Binary writes 1 for every present token.
	Binary Mode = "binary"
	// Count writes the token's occurrence count in the sample.
	Count Mode = "count"
	// Tfidf writes count * smooth idf, L2-normalized per sample.
	Tfidf Mode = "tfidf"
)

// Modes lists the supported modes.
func Modes() []Mode {
	return []Mode{Binary, Count, Tfidf}
}

// ParseMode resolves a mode name.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	for _, v := range Modes() {
		if m == v {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown encoding mode %q", s)
}

// Encoder maps feature records onto the dimensions of one immutable
// vocabulary snapshot. It is safe for concurrent use.
type Encoder struct {
	snap *vocab.Snapshot
	mode Mode
	idf  []float64
}

// NewEncoder binds an encoder to snap.
func NewEncoder(snap *vocab.Snapshot, mode Mode) (*Encoder, error) {
	if snap == nil {
		return nil, fmt.Errorf("nil snapshot")
	}
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}
	e := &Encoder{snap: snap, mode: mode}
	if mode == Tfidf {
		e.idf = smoothIDF(snap.DocFreqs(), snap.Samples())
	}
	return e, nil
}

// smoothIDF computes log((1 + n) / (1 + df)) + 1 for every dimension.
func smoothIDF(df []int, samples int) []float64 {
	n := float64(samples)
	idf := make([]float64, len(df))
	for i, d := range df {
		idf[i] = math.Log((1+n)/(1+float64(d))) + 1
	}
	return idf
}

// Dim returns the vector length.
func (e *Encoder) Dim() int {
	return e.snap.Dim()
}

// Snapshot returns the bound snapshot.
func (e *Encoder) Snapshot() *vocab.Snapshot {
	return e.snap
}

// Transform encodes rec. Tokens absent from the snapshot are dropped.
// Indices are ascending.
func (e *Encoder) Transform(rec *feature.Record) SparseVector {
	parts := make([]SparseVector, feature.NumTypes)
	for _, t := range feature.Types() {
		sv := NewSparseVector(e.snap.Len(t))
		offset := e.snap.Offset(t)
		for _, tok := range rec.Tokens(t) {
			dim, ok := e.snap.Index(t, tok)
			if !ok {
				continue
			}
			val := 1.0
			if e.mode != Binary {
				val = float64(rec.Count(t, tok))
			}
			sv.Indices = append(sv.Indices, dim-offset)
			sv.Values = append(sv.Values, val)
		}
		sv.Sort()
		parts[t] = sv
	}

	out := ConcatSparse(parts)
	if e.mode == Tfidf {
		for i, idx := range out.Indices {
			out.Values[i] *= e.idf[idx]
		}
		out.Normalize()
	}
	return out
}

// TransformDense encodes rec as a dense slice of length Dim.
func (e *Encoder) TransformDense(rec *feature.Record) []float64 {
	return e.Transform(rec).ToDense()
}
