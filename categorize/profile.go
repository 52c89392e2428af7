package categorize

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrProfileMismatch is returned when two categorization profiles that must
// agree differ.
var ErrProfileMismatch = errors.New("categorization mismatch")

// Profile is the persisted form of the options that decide a Categorizer's
// output. A vocabulary built from categorized samples records its profile
// so that later passes apply the same mapping, and apply it only once.
type Profile struct {
	Dotted       DottedRules `json:"dotted"`
	CollapseURLs bool        `json:"collapse_urls,omitempty"`
	// Categories is nil for DefaultURLCategories.
	Categories []URLCategory `json:"categories"`
}

// Profile returns the profile of opts with defaults resolved.
func (o Options) Profile() Profile {
	dotted := DefaultDottedRules()
	if o.Dotted != nil {
		dotted = *o.Dotted
	}
	return Profile{Dotted: dotted, CollapseURLs: o.CollapseUncategorizedURLs, Categories: o.Categories}
}

// Options returns options reproducing p with the given cache size.
func (p Profile) Options(cacheSize int) Options {
	dotted := p.Dotted
	return Options{
		Categories:                p.Categories,
		Dotted:                    &dotted,
		CollapseUncategorizedURLs: p.CollapseURLs,
		CacheSize:                 cacheSize,
	}
}

// Equal reports whether p and q categorize every token identically.
func (p Profile) Equal(q Profile) bool {
	a, errA := json.Marshal(p)
	b, errB := json.Marshal(q)
	return errA == nil && errB == nil && string(a) == string(b)
}

// Profile returns the profile the categorizer was built from.
func (c *Categorizer) Profile() Profile {
	return c.profile
}

// SameProfile compares two optional profiles, where nil means the data is
// not categorized. It returns an error wrapping ErrProfileMismatch when they
// differ.
func SameProfile(a, b *Profile) error {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil, b == nil:
		return fmt.Errorf("%w: mixing categorized and raw tokens", ErrProfileMismatch)
	case !a.Equal(*b):
		return fmt.Errorf("%w: different categorization rules", ErrProfileMismatch)
	}
	return nil
}
