// Package apkfeat builds feature vocabularies over corpora of Android
// sample feature files and encodes samples as fixed-length vectors.
//
// A typical run accumulates a vocabulary, prunes it, freezes it and encodes:
//
//	res, _ := apkfeat.Build(ctx, "corpus", apkfeat.BuildOptions{})
//	_, _ = apkfeat.Reduce(ctx, "corpus", "reduced", vocab.DefaultBounds())
//	snap, _ := apkfeat.Freeze("reduced", "")
//	enc, _ := apkfeat.NewEncoder(snap, apkfeat.EncoderOptions{Mode: apkfeat.Binary})
//	v, _ := enc.EncodeFile("sample.txt")
//	fmt.Println(v.Indices) // [3 17 42]
package apkfeat

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/DennisG8153/apkfeat/categorize"
	"github.com/DennisG8153/apkfeat/feature"
	"github.com/DennisG8153/apkfeat/internal/store"
	"github.com/DennisG8153/apkfeat/internal/vectorizer"
	"github.com/DennisG8153/apkfeat/vocab"
)

// Mode selects the value written for a present token.
type Mode string

// Encoding modes.
const (
	Binary Mode = Mode(vectorizer.Binary)
	Count  Mode = Mode(vectorizer.Count)
	Tfidf  Mode = Mode(vectorizer.Tfidf)
)

// ParseMode resolves a mode name.
func ParseMode(s string) (Mode, error) {
	m, err := vectorizer.ParseMode(s)
	if err != nil {
		return "", fmt.Errorf("apkfeat: %w", err)
	}
	return Mode(m), nil
}

// Vector is one encoded sample. Indices are ascending.
type Vector struct {
	Sample  string    `json:"sample"`
	Label   int       `json:"label"`
	Dim     int       `json:"dim"`
	Indices []int     `json:"indices"`
	Values  []float64 `json:"values"`
}

// Dense expands v to a full-length vector.
func (v Vector) Dense() []float64 {
	out := make([]float64, v.Dim)
	for i, idx := range v.Indices {
		out[idx] = v.Values[i]
	}
	return out
}

// EncoderOptions configures an Encoder.
type EncoderOptions struct {
	Mode Mode
	// Categorizer, when set, must match the categorization recorded in the
	// snapshot. When nil, the recorded categorization is used.
	Categorizer *categorize.Categorizer
	// CacheSize bounds the cache of a categorizer built from the snapshot.
	CacheSize int
}

// Encoder encodes feature records against one frozen snapshot.
type Encoder struct {
	enc *vectorizer.Encoder
	cat *categorize.Categorizer
}

// NewEncoder binds an encoder to snap. An empty mode means Binary. Raw
// records are categorized the way the snapshot's samples were; a
// Categorizer disagreeing with the snapshot is refused.
func NewEncoder(snap *vocab.Snapshot, opts EncoderOptions) (*Encoder, error) {
	mode := opts.Mode
	if mode == "" {
		mode = Binary
	}
	enc, err := vectorizer.NewEncoder(snap, vectorizer.Mode(mode))
	if err != nil {
		return nil, fmt.Errorf("apkfeat: %w", err)
	}

	cat := opts.Categorizer
	recorded := snap.Categorization()
	switch {
	case cat != nil:
		p := cat.Profile()
		if err := categorize.SameProfile(recorded, &p); err != nil {
			return nil, fmt.Errorf("apkfeat: vocabulary: %w", err)
		}
	case recorded != nil:
		if cat, err = categorize.New(recorded.Options(opts.CacheSize)); err != nil {
			return nil, fmt.Errorf("apkfeat: %w", err)
		}
	}
	return &Encoder{enc: enc, cat: cat}, nil
}

// Dim returns the vector length.
func (e *Encoder) Dim() int {
	return e.enc.Dim()
}

// Snapshot returns the bound snapshot.
func (e *Encoder) Snapshot() *vocab.Snapshot {
	return e.enc.Snapshot()
}

// Categorized reports whether the encoder categorizes raw records.
func (e *Encoder) Categorized() bool {
	return e.cat != nil
}

// Encode encodes the raw record rec. Tokens unknown to the snapshot are
// dropped. The label is -1.
func (e *Encoder) Encode(rec *feature.Record) Vector {
	if e.cat != nil {
		rec = e.cat.Record(rec)
	}
	return e.encodeStored(rec)
}

// encodeStored encodes a record that already went through the snapshot's
// categorization.
func (e *Encoder) encodeStored(rec *feature.Record) Vector {
	sv := e.enc.Transform(rec)
	return Vector{Sample: rec.ID, Label: -1, Dim: sv.Dim, Indices: sv.Indices, Values: sv.Values}
}

// EncodeDense encodes the raw record rec as a dense slice of length Dim.
func (e *Encoder) EncodeDense(rec *feature.Record) []float64 {
	if e.cat != nil {
		rec = e.cat.Record(rec)
	}
	return e.enc.TransformDense(rec)
}

// EncodeFile reads and encodes one feature file.
func (e *Encoder) EncodeFile(path string) (Vector, error) {
	rec, err := feature.ReadFile(path, filepath.Base(path))
	if err != nil {
		return Vector{}, fmt.Errorf("apkfeat: %w", err)
	}
	return e.Encode(rec), nil
}

// LoadSnapshot loads a frozen vocabulary. path is either a snapshot file or
// a corpus root; a root holding snapshot.json loads that file, otherwise
// its vocabulary files are snapshotted directly.
func LoadSnapshot(path string) (*vocab.Snapshot, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("apkfeat: %w", err)
	}
	if !info.IsDir() {
		snap, err := store.LoadSnapshot(path)
		if err != nil {
			return nil, fmt.Errorf("apkfeat: %w", err)
		}
		return snap, nil
	}

	s := store.New(path)
	snap, err := store.LoadSnapshot(s.Path(store.SnapshotFile))
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("apkfeat: %w", err)
	}
	snap, err = snapshotOf(s)
	if err != nil {
		return nil, fmt.Errorf("apkfeat: %w", err)
	}
	return snap, nil
}

// snapshotOf freezes a root's vocabulary together with the categorization
// recorded in its manifest.
func snapshotOf(s *store.Store) (*vocab.Snapshot, error) {
	x, err := loadIndex(s)
	if err != nil {
		return nil, err
	}
	snap := x.Snapshot()
	m, err := s.Check()
	if err != nil {
		return nil, err
	}
	if m != nil && m.Categorization != nil {
		snap = snap.WithCategorization(m.Categorization)
	}
	return snap, nil
}

// loadIndex loads a root's vocabulary with its sample count restored from
// the corpus totals, and validates it.
func loadIndex(s *store.Store) (*vocab.Index, error) {
	x, err := s.LoadVocabularyChecked(store.LoadOptions{})
	if err != nil {
		return nil, err
	}
	corp, err := s.LoadCorpus()
	if err != nil {
		return nil, err
	}
	x.SetSamples(corp.Files)
	if err := x.Validate(corp.Files); err != nil {
		return nil, err
	}
	return x, nil
}
