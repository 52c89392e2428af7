package vocab

// Corpus holds corpus-wide counters: the number of processed sample files
// and each sample's total feature count, in first-recorded order.
type Corpus struct {
	Files  int
	order  []string
	totals map[string]int
}

// NewCorpus creates empty counters.
func NewCorpus() *Corpus {
	return &Corpus{totals: make(map[string]int)}
}

// Add records a processed sample. A sample seen for the first time
// increments Files; a repeated sample only updates its total.
func (c *Corpus) Add(id string, total int) {
	if _, ok := c.totals[id]; !ok {
		c.order = append(c.order, id)
		c.Files++
	}
	c.totals[id] = total
}

// Set records a sample total without touching Files. Loaders use it when
// the file count is persisted separately.
func (c *Corpus) Set(id string, total int) {
	if _, ok := c.totals[id]; !ok {
		c.order = append(c.order, id)
	}
	c.totals[id] = total
}

// Total returns the feature count recorded for a sample.
func (c *Corpus) Total(id string) (int, bool) {
	n, ok := c.totals[id]
	return n, ok
}

// Samples returns sample ids in first-recorded order.
func (c *Corpus) Samples() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of samples with a recorded total.
func (c *Corpus) Len() int {
	return len(c.order)
}

// Reset clears all counters.
func (c *Corpus) Reset() {
	c.Files = 0
	c.order = nil
	c.totals = make(map[string]int)
}
