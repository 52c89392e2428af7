// Package vocab accumulates the corpus-wide feature vocabulary, prunes it by
// document frequency and freezes it into dense snapshots for encoding.
//
// Token ids are assigned per feature type in first-seen order and are never
// reused or reordered. Pruning removes entries without renumbering the
// survivors; Reindex and Snapshot produce a dense id space.
package vocab

import (
	"fmt"

	"github.com/DennisG8153/apkfeat/feature"
)

// Entry is one vocabulary token with its statistics.
type Entry struct {
	Token   string `json:"token"`
	ID      int    `json:"id"`
	DocFreq int    `json:"df"`
	Count   int    `json:"count"`
}

// table maps tokens of one feature type to entries kept in id order.
type table struct {
	entries []Entry
	pos     map[string]int
	nextID  int
}

func newTable() *table {
	return &table{pos: make(map[string]int)}
}

// add appends token with the next id, or returns the existing position.
func (tb *table) add(token string) (int, bool) {
	if p, ok := tb.pos[token]; ok {
		return p, false
	}
	p := len(tb.entries)
	tb.entries = append(tb.entries, Entry{Token: token, ID: tb.nextID})
	tb.pos[token] = p
	tb.nextID++
	return p, true
}

func (tb *table) clone() *table {
	out := &table{
		entries: make([]Entry, len(tb.entries)),
		pos:     make(map[string]int, len(tb.pos)),
		nextID:  tb.nextID,
	}
	copy(out.entries, tb.entries)
	for k, v := range tb.pos {
		out.pos[k] = v
	}
	return out
}

// Index is the corpus-wide vocabulary. Every feature type is always
// present, possibly empty. An Index is not safe for concurrent mutation.
type Index struct {
	tables  [feature.NumTypes]*table
	samples int
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	x := &Index{}
	for i := range x.tables {
		x.tables[i] = newTable()
	}
	return x
}

// Ingest adds one sample. New tokens get the next id of their type with a
// document frequency of 1; known tokens have their document frequency
// incremented once. Occurrence counts are accumulated either way.
func (x *Index) Ingest(rec *feature.Record) {
	rec.Each(func(t feature.Type, token string, count int) {
		tb := x.tables[t]
		p, _ := tb.add(token)
		tb.entries[p].DocFreq++
		tb.entries[p].Count += count
	})
	x.samples++
}

// Insert appends token with the given statistics when it is not yet known.
// It is used to rebuild an index from persisted files, where line order is
// id order.
func (x *Index) Insert(t feature.Type, token string, docFreq, count int) (Entry, bool) {
	if !t.Valid() || token == "" {
		return Entry{}, false
	}
	tb := x.tables[t]
	p, added := tb.add(token)
	if added {
		tb.entries[p].DocFreq = docFreq
		tb.entries[p].Count = count
	}
	return tb.entries[p], added
}

// SetCount overwrites the aggregate occurrence count of a known token.
func (x *Index) SetCount(t feature.Type, token string, count int) bool {
	if !t.Valid() {
		return false
	}
	tb := x.tables[t]
	p, ok := tb.pos[token]
	if !ok {
		return false
	}
	tb.entries[p].Count = count
	return true
}

// Recount adds one sample to a fixed vocabulary: known tokens have their
// document frequency and occurrence count incremented, unknown tokens are
// ignored. It returns the number of ignored tokens.
func (x *Index) Recount(rec *feature.Record) int {
	dropped := 0
	rec.Each(func(t feature.Type, token string, count int) {
		tb := x.tables[t]
		p, ok := tb.pos[token]
		if !ok {
			dropped++
			return
		}
		tb.entries[p].DocFreq++
		tb.entries[p].Count += count
	})
	x.samples++
	return dropped
}

// Samples returns the number of ingested samples.
func (x *Index) Samples() int {
	return x.samples
}

// SetSamples sets the sample count, e.g. from persisted corpus totals.
func (x *Index) SetSamples(n int) {
	x.samples = n
}

// Lookup returns the entry for token.
func (x *Index) Lookup(t feature.Type, token string) (Entry, bool) {
	if !t.Valid() {
		return Entry{}, false
	}
	tb := x.tables[t]
	p, ok := tb.pos[token]
	if !ok {
		return Entry{}, false
	}
	return tb.entries[p], true
}

// Contains reports whether token is in the vocabulary.
func (x *Index) Contains(t feature.Type, token string) bool {
	_, ok := x.Lookup(t, token)
	return ok
}

// Entries returns the entries of type t in id order.
func (x *Index) Entries(t feature.Type) []Entry {
	if !t.Valid() {
		return nil
	}
	out := make([]Entry, len(x.tables[t].entries))
	copy(out, x.tables[t].entries)
	return out
}

// Len returns the number of tokens of type t.
func (x *Index) Len(t feature.Type) int {
	if !t.Valid() {
		return 0
	}
	return len(x.tables[t].entries)
}

// Total returns the number of tokens across all types.
func (x *Index) Total() int {
	n := 0
	for _, tb := range x.tables {
		n += len(tb.entries)
	}
	return n
}

// Clone returns a deep copy.
func (x *Index) Clone() *Index {
	out := &Index{samples: x.samples}
	for i, tb := range x.tables {
		out.tables[i] = tb.clone()
	}
	return out
}

// Reindex returns a copy whose ids are dense, 0..n-1 per type, preserving
// order.
func (x *Index) Reindex() *Index {
	out := NewIndex()
	out.samples = x.samples
	for t, tb := range x.tables {
		for _, e := range tb.entries {
			out.Insert(feature.Type(t), e.Token, e.DocFreq, e.Count)
		}
	}
	return out
}

// Validate checks that no document frequency exceeds total samples.
func (x *Index) Validate(total int) error {
	for t, tb := range x.tables {
		for _, e := range tb.entries {
			if e.DocFreq > total {
				return &ConsistencyError{
					Op:     "validate",
					Detail: fmt.Sprintf("%s token %q has document frequency %d above sample total %d", feature.Type(t), e.Token, e.DocFreq, total),
				}
			}
		}
	}
	return nil
}
