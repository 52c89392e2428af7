// Package vecstore writes encoded sample vectors to JSON lines files or a
// Badger key-value store.
package vecstore

import (
	"bufio"
	"encoding/json"
	"io"
)

// Record is one encoded sample.
type Record struct {
	Sample  string    `json:"sample"`
	Label   int       `json:"label"`
	Dim     int       `json:"dim"`
	Indices []int     `json:"indices"`
	Values  []float64 `json:"values"`
}

// Dense expands the record to a full-length vector.
func (r Record) Dense() []float64 {
	out := make([]float64, r.Dim)
	for i, idx := range r.Indices {
		out[idx] = r.Values[i]
	}
	return out
}

// Sink receives encoded records.
type Sink interface {
	Put(r Record) error
	Close() error
}

type denseLine struct {
	Sample string    `json:"sample"`
	Label  int       `json:"label"`
	Dim    int       `json:"dim"`
	Dense  []float64 `json:"dense"`
}

// JSONLWriter writes one JSON object per record.
type JSONLWriter struct {
	bw    *bufio.Writer
	enc   *json.Encoder
	c     io.Closer
	dense bool
	n     int
}

// NewJSONLWriter writes to w. With dense set, records are written as
// {"sample","label","dim","dense"}; otherwise as sparse indices and values.
// Close closes w when it is an io.Closer.
func NewJSONLWriter(w io.Writer, dense bool) *JSONLWriter {
	bw := bufio.NewWriter(w)
	jw := &JSONLWriter{bw: bw, enc: json.NewEncoder(bw), dense: dense}
	if c, ok := w.(io.Closer); ok {
		jw.c = c
	}
	return jw
}

// Put writes r as a single line.
func (w *JSONLWriter) Put(r Record) error {
	w.n++
	if w.dense {
		return w.enc.Encode(denseLine{Sample: r.Sample, Label: r.Label, Dim: r.Dim, Dense: r.Dense()})
	}
	if r.Indices == nil {
		r.Indices = []int{}
	}
	if r.Values == nil {
		r.Values = []float64{}
	}
	return w.enc.Encode(r)
}

// Count returns the number of records written.
func (w *JSONLWriter) Count() int {
	return w.n
}

// Close flushes buffered lines and closes the underlying writer.
func (w *JSONLWriter) Close() error {
	if err := w.bw.Flush(); err != nil {
		return err
	}
	if w.c != nil {
		return w.c.Close()
	}
	return nil
}
