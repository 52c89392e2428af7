package vocab

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/DennisG8153/apkfeat/categorize"
	"github.com/DennisG8153/apkfeat/feature"
)

// SnapshotVersion is the serialized snapshot format version.
const SnapshotVersion = 1

// ErrSnapshotTypes is returned when persisted data lists feature types that
// differ from the canonical enumeration.
var ErrSnapshotTypes = errors.New("feature types do not match")

// Snapshot is an immutable, densely indexed view of an Index. Dimension i
// of an encoded vector corresponds to the i-th token when types are
// concatenated in enumeration order.
type Snapshot struct {
	tokens  [feature.NumTypes][]string
	docFreq [feature.NumTypes][]int
	offsets [feature.NumTypes + 1]int
	lookup  [feature.NumTypes]map[string]int
	samples int
	cat     *categorize.Profile
}

// Snapshot freezes the current contents of x.
func (x *Index) Snapshot() *Snapshot {
	var tokens [feature.NumTypes][]string
	var df [feature.NumTypes][]int
	for t, tb := range x.tables {
		tokens[t] = make([]string, len(tb.entries))
		df[t] = make([]int, len(tb.entries))
		for i, e := range tb.entries {
			tokens[t][i] = e.Token
			df[t][i] = e.DocFreq
		}
	}
	return newSnapshot(tokens, df, x.samples)
}

func newSnapshot(tokens [feature.NumTypes][]string, df [feature.NumTypes][]int, samples int) *Snapshot {
	s := &Snapshot{tokens: tokens, docFreq: df, samples: samples}
	off := 0
	for t := range tokens {
		s.offsets[t] = off
		s.lookup[t] = make(map[string]int, len(tokens[t]))
		for i, tok := range tokens[t] {
			s.lookup[t][tok] = off + i
		}
		off += len(tokens[t])
	}
	s.offsets[feature.NumTypes] = off
	return s
}

// Dim returns the total number of dimensions.
func (s *Snapshot) Dim() int {
	return s.offsets[feature.NumTypes]
}

// Len returns the number of tokens of type t.
func (s *Snapshot) Len(t feature.Type) int {
	if !t.Valid() {
		return 0
	}
	return len(s.tokens[t])
}

// Offset returns the first dimension of type t.
func (s *Snapshot) Offset(t feature.Type) int {
	if !t.Valid() {
		return -1
	}
	return s.offsets[t]
}

// Index returns the dimension of token, or false when it is not part of the
// snapshot.
func (s *Snapshot) Index(t feature.Type, token string) (int, bool) {
	if !t.Valid() {
		return -1, false
	}
	i, ok := s.lookup[t][token]
	return i, ok
}

// Tokens returns the tokens of type t in dimension order.
func (s *Snapshot) Tokens(t feature.Type) []string {
	if !t.Valid() {
		return nil
	}
	return slices.Clone(s.tokens[t])
}

// DocFreqs returns the document frequency of every dimension.
func (s *Snapshot) DocFreqs() []int {
	out := make([]int, 0, s.Dim())
	for t := range s.docFreq {
		out = append(out, s.docFreq[t]...)
	}
	return out
}

// Samples returns the number of samples the frequencies were counted over.
func (s *Snapshot) Samples() int {
	return s.samples
}

// FeatureNames returns "<type>:<token>" for every dimension.
func (s *Snapshot) FeatureNames() []string {
	out := make([]string, 0, s.Dim())
	for t := range s.tokens {
		for _, tok := range s.tokens[t] {
			out = append(out, feature.Type(t).String()+":"+tok)
		}
	}
	return out
}

// Categorization returns the categorization the vocabulary's samples went
// through, or nil for raw samples.
func (s *Snapshot) Categorization() *categorize.Profile {
	return s.cat
}

// WithCategorization returns a copy of s recording categorization p.
func (s *Snapshot) WithCategorization(p *categorize.Profile) *Snapshot {
	out := *s
	out.cat = p
	return &out
}

type snapshotType struct {
	Type    string   `json:"type"`
	Tokens  []string `json:"tokens"`
	DocFreq []int    `json:"doc_freq"`
}

type snapshotJSON struct {
	Version      int            `json:"version"`
	FeatureTypes []string       `json:"feature_types"`
	Samples      int            `json:"samples"`
	Dim          int            `json:"dim"`
	Vocabulary   []snapshotType `json:"vocabulary"`

	Categorization *categorize.Profile `json:"categorization,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	out := snapshotJSON{
		Version:      SnapshotVersion,
		FeatureTypes: feature.Names(),
		Samples:      s.samples,
		Dim:          s.Dim(),
		Vocabulary:   make([]snapshotType, feature.NumTypes),

		Categorization: s.cat,
	}
	for t := range s.tokens {
		out.Vocabulary[t] = snapshotType{
			Type:    feature.Type(t).String(),
			Tokens:  nonNil(s.tokens[t]),
			DocFreq: nonNilInts(s.docFreq[t]),
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler. Snapshots written with a
// different feature type list are rejected with ErrSnapshotTypes.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var in snapshotJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.Version != SnapshotVersion {
		return &ConsistencyError{Op: "load snapshot", Detail: fmt.Sprintf("unsupported version %d", in.Version)}
	}
	if !slices.Equal(in.FeatureTypes, feature.Names()) {
		return fmt.Errorf("load snapshot: %w: got %v, want %v", ErrSnapshotTypes, in.FeatureTypes, feature.Names())
	}
	if len(in.Vocabulary) != feature.NumTypes {
		return &ConsistencyError{Op: "load snapshot", Detail: fmt.Sprintf("%d vocabulary sections for %d feature types", len(in.Vocabulary), feature.NumTypes)}
	}

	var tokens [feature.NumTypes][]string
	var df [feature.NumTypes][]int
	for t, v := range in.Vocabulary {
		if v.Type != feature.Type(t).String() {
			return fmt.Errorf("load snapshot: %w: section %d is %q, want %q", ErrSnapshotTypes, t, v.Type, feature.Type(t))
		}
		if len(v.DocFreq) != len(v.Tokens) {
			return &ConsistencyError{Op: "load snapshot", Detail: fmt.Sprintf("%s has %d tokens but %d frequencies", v.Type, len(v.Tokens), len(v.DocFreq))}
		}
		seen := make(map[string]bool, len(v.Tokens))
		for _, tok := range v.Tokens {
			if tok == "" || seen[tok] {
				return &ConsistencyError{Op: "load snapshot", Detail: fmt.Sprintf("%s has empty or duplicate token %q", v.Type, tok)}
			}
			seen[tok] = true
		}
		tokens[t] = v.Tokens
		df[t] = v.DocFreq
	}
	*s = *newSnapshot(tokens, df, in.Samples)
	s.cat = in.Categorization
	if in.Dim != 0 && in.Dim != s.Dim() {
		return &ConsistencyError{Op: "load snapshot", Detail: fmt.Sprintf("declared dimension %d, found %d", in.Dim, s.Dim())}
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilInts(s []int) []int {
	if s == nil {
		return []int{}
	}
	return s
}
