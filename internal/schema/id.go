package schema

import "strings"

// IDKind distinguishes the two legitimate identifier shapes.
type IDKind int

const (
	// IDRoot is a bare client-generated id (a UUID in practice).
	IDRoot IDKind = iota

	// IDDerived is a deterministic composite id built as parent_key by the
	// inheritance engine, so re-running inheritance collides instead of
	// duplicating.
	IDDerived
)

// ID is the parsed form of an identifier. Derived ids carry the owning
// report id and the root issue key; root ids carry only the value.
type ID struct {
	Kind   IDKind
	Value  string // full normalized id
	Parent string // derived only
	Key    string // derived only
}

// DerivedID builds the deterministic composite id for an inherited copy of
// issue key inside report parent.
func DerivedID(parent, key string) string {
	return parent + "_" + key
}

// ParseID classifies an identifier and repairs the one known malformed
// shape: a value accidentally doubled as "v_v" collapses back to "v".
// Legitimate composites ("parent_key" with differing halves) are preserved,
// as are bare ids and anything with more than one separator.
func ParseID(s string) ID {
	if !strings.Contains(s, "_") {
		return ID{Kind: IDRoot, Value: s}
	}

	parts := strings.Split(s, "_")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return ID{Kind: IDRoot, Value: s}
	}
	if parts[0] == parts[1] {
		// legacy doubled-id bug
		return ID{Kind: IDRoot, Value: parts[0]}
	}
	return ID{Kind: IDDerived, Value: s, Parent: parts[0], Key: parts[1]}
}

// NormalizeID returns the repaired form of an identifier. It is the pure
// replacement for the old shape-sniffing cleanup: only the doubled pattern
// changes, everything else passes through untouched.
func NormalizeID(s string) string {
	if s == "" {
		return s
	}
	return ParseID(s).Value
}

// IsDerivedID reports whether s has the deterministic composite shape.
func IsDerivedID(s string) bool {
	return ParseID(s).Kind == IDDerived
}
