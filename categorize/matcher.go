package categorize

import (
	"fmt"
	"sort"
	"strings"

	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/samber/lo"

	"github.com/DennisG8153/apkfeat/internal/textutil"
)

// placement is one occurrence of a keyword in the category list.
type placement struct {
	category int
	whole    bool
}

// matcher finds the first category whose keywords occur in a URL. All
// keywords share one Aho-Corasick automaton so a URL is scanned once
// regardless of the number of categories.
type matcher struct {
	machine *goahocorasick.Machine
	places  map[string][]placement
}

func newMatcher(categories []URLCategory) (*matcher, error) {
	places := make(map[string][]placement)
	for ci, c := range categories {
		for _, kw := range c.Keywords {
			text := strings.ToLower(strings.TrimSpace(kw.Text))
			if text == "" {
				continue
			}
			if strings.ContainsAny(text, textutil.URLDelimiters) {
				return nil, fmt.Errorf("category %s: keyword %q spans URL segments", c.Name, kw.Text)
			}
			places[text] = append(places[text], placement{category: ci, whole: kw.Whole})
		}
	}

	m := &matcher{places: places}
	if len(places) == 0 {
		return m, nil
	}

	// The automaton requires unique patterns in sorted order.
	words := lo.Keys(places)
	sort.Strings(words)
	patterns := make([][]rune, len(words))
	for i, w := range words {
		patterns[i] = []rune(w)
	}

	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, fmt.Errorf("build keyword automaton: %w", err)
	}
	m.machine = machine
	return m, nil
}

// match returns the index of the first matching category for the
// scheme-stripped, lower-cased URL remainder, or -1.
func (m *matcher) match(remainder string) int {
	if m.machine == nil || remainder == "" {
		return -1
	}
	s := []rune(remainder)
	best := -1
	for _, term := range m.machine.MultiPatternSearch(s, false) {
		word := string(term.Word)
		start, end := term.Pos, term.Pos+len(term.Word)
		if start < 0 || end > len(s) {
			continue
		}
		segStart, segEnd := textutil.SegmentAt(s, start, end)
		if segEnd-segStart < 2 {
			continue
		}
		for _, p := range m.places[word] {
			if best >= 0 && p.category >= best {
				continue
			}
			if p.whole && !textutil.Bounded(s, start, end) {
				continue
			}
			best = p.category
		}
	}
	return best
}

// keywordCount returns the number of distinct keywords.
func (m *matcher) keywordCount() int {
	return len(m.places)
}
