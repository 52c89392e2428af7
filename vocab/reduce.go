package vocab

import (
	"fmt"

	"github.com/DennisG8153/apkfeat/feature"
)

// Default pruning bounds.
const (
	DefaultFloor   = 5
	DefaultCeiling = 1
)

// ConsistencyError reports vocabulary data that cannot be used safely by the
// operation that found it.
type ConsistencyError struct {
	Op     string
	Detail string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("%s: inconsistent vocabulary: %s", e.Op, e.Detail)
}

// Bounds holds the document-frequency pruning thresholds.
type Bounds struct {
	Floor   int `json:"floor"`
	Ceiling int `json:"ceiling"`
}

// DefaultBounds returns the default pruning thresholds.
func DefaultBounds() Bounds {
	return Bounds{Floor: DefaultFloor, Ceiling: DefaultCeiling}
}

// Keep reports whether a token with document frequency df survives in a
// corpus of total samples.
func (b Bounds) Keep(df, total int) bool {
	return b.Floor < df && df < total-b.Ceiling
}

// Reduce returns a new index keeping only entries with
// floor < DocFreq < total-ceiling. Survivors keep their ids.
func Reduce(x *Index, total, floor, ceiling int) (*Index, error) {
	if total < 0 || floor < 0 || ceiling < 0 {
		return nil, &ConsistencyError{Op: "reduce", Detail: fmt.Sprintf("negative bound: total=%d floor=%d ceiling=%d", total, floor, ceiling)}
	}
	if err := x.Validate(total); err != nil {
		return nil, fmt.Errorf("reduce: %w", err)
	}
	b := Bounds{Floor: floor, Ceiling: ceiling}

	out := &Index{samples: x.samples}
	for t, tb := range x.tables {
		nt := newTable()
		nt.nextID = tb.nextID
		for _, e := range tb.entries {
			if !b.Keep(e.DocFreq, total) {
				continue
			}
			nt.pos[e.Token] = len(nt.entries)
			nt.entries = append(nt.entries, e)
		}
		out.tables[t] = nt
	}
	return out, nil
}

// ReduceRecord returns a copy of rec holding only tokens present in x.
func ReduceRecord(rec *feature.Record, x *Index) *feature.Record {
	return rec.Filter(x.Contains)
}
