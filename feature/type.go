// Package feature defines the canonical feature types of an analyzed sample
// and parses per-sample feature files into records.
package feature

import "fmt"

// Type is one of the fixed semantic categories of extracted signal.
// The numeric order is significant: on-disk layout and vector layout both
// follow it.
type Type int

const (
	Permissions Type = iota
	UsedHardwareSoftware
	Intents
	APICalls
	Libraries
	URLs
)

// NumTypes is the size of the closed Type enumeration.
const NumTypes = 6

var typeNames = [NumTypes]string{
	"permissions",
	"used_hardware_software",
	"intents",
	"api_calls",
	"libraries",
	"urls",
}

var typeTags = [NumTypes]string{
	"Permission",
	"Used Hardware/Software",
	"Intent",
	"API",
	"Library",
	"URL",
}

// legacyNames maps type names found in older corpus layouts.
var legacyNames = map[string]Type{
	"used_hsware": UsedHardwareSoftware,
}

// Types returns every Type in enumeration order.
func Types() []Type {
	out := make([]Type, NumTypes)
	for i := range out {
		out[i] = Type(i)
	}
	return out
}

// Names returns the canonical type names in enumeration order.
func Names() []string {
	out := make([]string, NumTypes)
	copy(out, typeNames[:])
	return out
}

// Valid reports whether t is part of the enumeration.
func (t Type) Valid() bool {
	return t >= 0 && t < NumTypes
}

// String returns the canonical type name, e.g. "api_calls".
func (t Type) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeNames[t]
}

// Tag returns the line tag used in feature files, e.g. "API".
func (t Type) Tag() string {
	if !t.Valid() {
		return ""
	}
	return typeTags[t]
}

// Categorized reports whether tokens of this type are high-cardinality
// strings that the categorizer coarsens.
func (t Type) Categorized() bool {
	return t == APICalls || t == Libraries || t == URLs
}

// ParseTag resolves a feature-file line tag.
func ParseTag(tag string) (Type, bool) {
	for i, v := range typeTags {
		if v == tag {
			return Type(i), true
		}
	}
	return -1, false
}

// ParseType resolves a canonical type name.
func ParseType(name string) (Type, bool) {
	for i, v := range typeNames {
		if v == name {
			return Type(i), true
		}
	}
	return -1, false
}

// ParseLegacyType resolves a type name that is no longer canonical.
// It returns false for canonical names.
func ParseLegacyType(name string) (Type, bool) {
	t, ok := legacyNames[name]
	return t, ok
}

// LegacyNames returns the historical names accepted by ParseLegacyType.
func LegacyNames() map[string]Type {
	out := make(map[string]Type, len(legacyNames))
	for k, v := range legacyNames {
		out[k] = v
	}
	return out
}
