package apkfeat

import (
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/DennisG8153/apkfeat/feature"
	"github.com/DennisG8153/apkfeat/internal/store"
	"github.com/DennisG8153/apkfeat/vocab"
)

// TypeStats describes the vocabulary of one feature type.
type TypeStats struct {
	Type        feature.Type
	Tokens      int
	Occurrences int
	// Singletons counts tokens seen in exactly one sample.
	Singletons int
	MaxDocFreq int
}

// Stats describes a corpus root's vocabulary.
type Stats struct {
	Files  int
	Types  []TypeStats
	Tokens int
	index  *vocab.Index
}

// LoadStats reads the vocabulary and totals under root.
func LoadStats(root string) (*Stats, error) {
	x, err := loadIndex(store.New(root))
	if err != nil {
		return nil, fmt.Errorf("apkfeat: %w", err)
	}
	return NewStats(x), nil
}

// NewStats summarizes x.
func NewStats(x *vocab.Index) *Stats {
	st := &Stats{Files: x.Samples(), Tokens: x.Total(), index: x}
	st.Types = lo.Map(feature.Types(), func(t feature.Type, _ int) TypeStats {
		ts := TypeStats{Type: t}
		for _, e := range x.Entries(t) {
			ts.Tokens++
			ts.Occurrences += e.Count
			if e.DocFreq == 1 {
				ts.Singletons++
			}
			ts.MaxDocFreq = max(ts.MaxDocFreq, e.DocFreq)
		}
		return ts
	})
	return st
}

// Bucket is one row of a document-frequency distribution: Tokens distinct
// tokens occur in exactly DocFreq samples.
type Bucket struct {
	DocFreq int
	Tokens  int
}

// Distribution returns the document-frequency distribution across all
// types, ascending by document frequency.
func (st *Stats) Distribution() []Bucket {
	counts := make(map[int]int)
	for _, t := range feature.Types() {
		for _, e := range st.index.Entries(t) {
			counts[e.DocFreq]++
		}
	}
	keys := lo.Keys(counts)
	sort.Ints(keys)
	return lo.Map(keys, func(df int, _ int) Bucket {
		return Bucket{DocFreq: df, Tokens: counts[df]}
	})
}

// Surviving counts the tokens b would keep.
func (st *Stats) Surviving(b vocab.Bounds) int {
	n := 0
	for _, t := range feature.Types() {
		for _, e := range st.index.Entries(t) {
			if b.Keep(e.DocFreq, st.Files) {
				n++
			}
		}
	}
	return n
}
