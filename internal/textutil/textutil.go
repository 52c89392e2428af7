// Package textutil provides string helpers for feature tokens: URL
// segmentation, dotted-name prefixes and registered domains.
package textutil

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/publicsuffix"
)

// URLDelimiters are the characters URL segments are split on.
const URLDelimiters = "/?&="

// StripScheme removes everything up to and including the first "://".
func StripScheme(u string) string {
	if _, rest, ok := strings.Cut(u, "://"); ok {
		return rest
	}
	return u
}

// URLRemainder lower-cases u and strips its scheme.
func URLRemainder(u string) string {
	return StripScheme(strings.ToLower(u))
}

// IsURLDelimiter reports whether r separates URL segments.
func IsURLDelimiter(r rune) bool {
	return strings.ContainsRune(URLDelimiters, r)
}

// URLSegments lower-cases u, strips the scheme and splits the remainder on
// URLDelimiters. Segments of at most one character are dropped.
func URLSegments(u string) []string {
	parts := strings.FieldsFunc(URLRemainder(u), IsURLDelimiter)
	out := parts[:0]
	for _, p := range parts {
		if utf8.RuneCountInString(p) > 1 {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// SegmentAt returns the rune bounds of the URL segment of s that contains
// the rune range [start, end).
func SegmentAt(s []rune, start, end int) (int, int) {
	for start > 0 && !IsURLDelimiter(s[start-1]) {
		start--
	}
	for end < len(s) && !IsURLDelimiter(s[end]) {
		end++
	}
	return start, end
}

// Bounded reports whether the rune range [start, end) of s is delimited by
// non-alphanumeric runes or the ends of s.
func Bounded(s []rune, start, end int) bool {
	if start > 0 && isAlnum(s[start-1]) {
		return false
	}
	if end < len(s) && isAlnum(s[end]) {
		return false
	}
	return true
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// DottedPrefix returns the first n dot-separated segments of name. Names
// with at most n segments, and n < 1, return name unchanged.
func DottedPrefix(name string, n int) string {
	if n < 1 {
		return name
	}
	idx := 0
	for i := 0; i < n; i++ {
		next := strings.IndexByte(name[idx:], '.')
		if next < 0 {
			return name
		}
		idx += next + 1
	}
	return name[:idx-1]
}

// HasDottedPrefix reports whether name equals prefix or lies under it at a
// segment boundary ("android.widget" matches "android.widget.Button" but not
// "android.widgets").
func HasDottedPrefix(name, prefix string) bool {
	if !strings.HasPrefix(name, prefix) {
		return false
	}
	return len(name) == len(prefix) || name[len(prefix)] == '.'
}

// Host extracts the host part of a URL-like string, without port.
func Host(rawURL string) string {
	host := StripScheme(strings.ToLower(rawURL))
	if idx := strings.IndexAny(host, URLDelimiters); idx >= 0 {
		host = host[:idx]
	}
	if idx := strings.LastIndex(host, "@"); idx >= 0 {
		host = host[idx+1:]
	}
	if idx := strings.Index(host, ":"); idx >= 0 {
		host = host[:idx]
	}
	return host
}

// RegisteredDomain returns the eTLD+1 of the URL's host, e.g.
// "example.co.uk" for "https://a.foo.example.co.uk/x". ok is false when
// no registered domain can be derived.
func RegisteredDomain(rawURL string) (string, bool) {
	host := Host(rawURL)
	if host == "" || !strings.Contains(host, ".") {
		return "", false
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return "", false
	}
	return domain, true
}
