package feature

// Record holds the features of one sample: for each Type, the tokens seen
// in the sample with their occurrence counts. Tokens keep the order in
// which they were first added so that downstream id assignment is
// reproducible.
type Record struct {
	ID     string
	order  [NumTypes][]string
	counts [NumTypes]map[string]int
}

// NewRecord creates an empty record for the given sample id.
func NewRecord(id string) *Record {
	r := &Record{ID: id}
	for i := range r.counts {
		r.counts[i] = make(map[string]int)
	}
	return r
}

// Add records count occurrences of token. Counts below 1 are treated as 1,
// and repeated tokens accumulate.
func (r *Record) Add(t Type, token string, count int) {
	if !t.Valid() || token == "" {
		return
	}
	if count < 1 {
		count = 1
	}
	if _, ok := r.counts[t][token]; !ok {
		r.order[t] = append(r.order[t], token)
	}
	r.counts[t][token] += count
}

// Count returns the occurrence count of token, 0 when absent.
func (r *Record) Count(t Type, token string) int {
	if !t.Valid() {
		return 0
	}
	return r.counts[t][token]
}

// Has reports whether token is present for type t.
func (r *Record) Has(t Type, token string) bool {
	return r.Count(t, token) > 0
}

// Tokens returns the tokens of type t in first-seen order.
func (r *Record) Tokens(t Type) []string {
	if !t.Valid() {
		return nil
	}
	out := make([]string, len(r.order[t]))
	copy(out, r.order[t])
	return out
}

// Len returns the number of distinct tokens of type t.
func (r *Record) Len(t Type) int {
	if !t.Valid() {
		return 0
	}
	return len(r.order[t])
}

// Total returns the sum of all token counts across every type.
func (r *Record) Total() int {
	total := 0
	for t := range r.counts {
		for _, c := range r.counts[t] {
			total += c
		}
	}
	return total
}

// Empty reports whether the record holds no tokens at all.
func (r *Record) Empty() bool {
	for t := range r.order {
		if len(r.order[t]) > 0 {
			return false
		}
	}
	return true
}

// Each calls fn for every token in type order, then first-seen order.
func (r *Record) Each(fn func(t Type, token string, count int)) {
	for t := range r.order {
		for _, tok := range r.order[t] {
			fn(Type(t), tok, r.counts[t][tok])
		}
	}
}

// Filter returns a new record holding only the tokens for which keep
// returns true.
func (r *Record) Filter(keep func(t Type, token string) bool) *Record {
	out := NewRecord(r.ID)
	r.Each(func(t Type, token string, count int) {
		if keep(t, token) {
			out.Add(t, token, count)
		}
	})
	return out
}

// Map returns a new record whose tokens are rewritten by fn. Tokens that
// map to the same value are merged and their counts summed.
func (r *Record) Map(fn func(t Type, token string) string) *Record {
	out := NewRecord(r.ID)
	r.Each(func(t Type, token string, count int) {
		out.Add(t, fn(t, token), count)
	})
	return out
}
