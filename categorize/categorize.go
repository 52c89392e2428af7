// Package categorize coarsens high-cardinality feature tokens into bounded
// buckets: dotted API and library names are collapsed or truncated, and
// URLs are mapped to the first matching keyword category.
//
// A Categorizer never drops a token. A token that matches no rule is
// returned unchanged.
package categorize

import (
	"fmt"
	"log/slog"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/DennisG8153/apkfeat/feature"
	"github.com/DennisG8153/apkfeat/internal/textutil"
)

// DefaultCacheSize is the number of categorized tokens memoized by default.
const DefaultCacheSize = 1 << 16

// DomainPrefix marks uncategorized URLs collapsed to their registered domain.
const DomainPrefix = "domain:"

// Options configures a Categorizer. The zero value uses the default URL
// categories, three-segment truncation and the default cache size.
type Options struct {
	// Categories overrides DefaultURLCategories when non-nil.
	Categories []URLCategory
	// Dotted overrides DefaultDottedRules when non-nil.
	Dotted *DottedRules
	// CollapseUncategorizedURLs maps URLs that match no category to
	// DomainPrefix + their registered domain.
	CollapseUncategorizedURLs bool
	// CacheSize bounds the memo cache; values below 1 use DefaultCacheSize.
	CacheSize int
}

// Categorizer maps raw tokens to bounded tokens. It is safe for concurrent
// use.
type Categorizer struct {
	categories []URLCategory
	dotted     DottedRules
	collapse   bool
	profile    Profile
	matcher    *matcher
	cache      *lru.Cache[string, string]
}

// New builds a Categorizer from opts.
func New(opts Options) (*Categorizer, error) {
	categories := opts.Categories
	if categories == nil {
		categories = DefaultURLCategories()
	}
	dotted := DefaultDottedRules()
	if opts.Dotted != nil {
		dotted = *opts.Dotted
	}
	size := opts.CacheSize
	if size < 1 {
		size = DefaultCacheSize
	}

	m, err := newMatcher(categories)
	if err != nil {
		return nil, err
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	slog.Debug("Categorizer ready", "categories", len(categories), "keywords", m.keywordCount(), "segments", dotted.Segments)

	return &Categorizer{
		categories: categories,
		dotted:     dotted,
		collapse:   opts.CollapseUncategorizedURLs,
		profile:    opts.Profile(),
		matcher:    m,
		cache:      cache,
	}, nil
}

// Token categorizes one token of type t. Types other than API calls,
// libraries and URLs pass through unchanged.
func (c *Categorizer) Token(t feature.Type, token string) string {
	if !t.Categorized() || token == "" {
		return token
	}
	key := strconv.Itoa(int(t)) + "\x00" + token
	if v, ok := c.cache.Get(key); ok {
		return v
	}
	var out string
	if t == feature.URLs {
		out = c.URL(token)
	} else {
		out = c.Dotted(token)
	}
	c.cache.Add(key, out)
	return out
}

// Record returns a categorized copy of rec. Tokens that collapse to the
// same value are merged and their counts summed.
func (c *Categorizer) Record(rec *feature.Record) *feature.Record {
	return rec.Map(c.Token)
}

// Dotted applies the dotted-name rules to name.
func (c *Categorizer) Dotted(name string) string {
	return c.dotted.Apply(name)
}

// Apply coarsens name according to the rules.
func (r DottedRules) Apply(name string) string {
	for _, p := range r.Sensitive {
		if textutil.HasDottedPrefix(name, p) {
			return name
		}
	}
	for _, p := range r.Collapse {
		if textutil.HasDottedPrefix(name, p) {
			return p
		}
	}
	return textutil.DottedPrefix(name, r.Segments)
}

// Category returns the name of the first category matching u.
func (c *Categorizer) Category(u string) (string, bool) {
	idx := c.matcher.match(textutil.URLRemainder(u))
	if idx < 0 {
		return "", false
	}
	return c.categories[idx].Name, true
}

// URL maps u to its category name. An uncategorized URL is returned
// unchanged, or collapsed to its registered domain when enabled.
func (c *Categorizer) URL(u string) string {
	if name, ok := c.Category(u); ok {
		return name
	}
	if c.collapse {
		if domain, ok := textutil.RegisteredDomain(u); ok {
			return DomainPrefix + domain
		}
	}
	return u
}
