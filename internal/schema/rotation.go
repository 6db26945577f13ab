package schema

import (
	"fmt"
	"strings"
)

// Rotation is the shift-pattern scheme a crew works under.
//
// The two schemes never exchange shifts: a 4x4 crew hands off only to other
// 4x4 crews, and likewise for 3x2. Keeping the scheme as a closed variant
// makes the "same family" predicate a total function instead of a string
// prefix match.
type Rotation string

const (
	// Rotation4x4 is four days on, four days off, crews A through D.
	Rotation4x4 Rotation = "4x4"
	// Rotation3x2 is three days on, two days off, crews A and B.
	Rotation3x2 Rotation = "3x2"
)

// Crews returns the crew letters valid within the rotation.
func (r Rotation) Crews() []string {
	if r == Rotation3x2 {
		return []string{"A", "B"}
	}
	return []string{"A", "B", "C", "D"}
}

// Valid reports whether r is a known rotation.
func (r Rotation) Valid() bool {
	return r == Rotation4x4 || r == Rotation3x2
}

// ShiftLetter is the stored "<rotation> <crew>" tag, e.g. "4x4 A" or "3x2 B".
type ShiftLetter string

// CrewTag is the decoded form of a ShiftLetter.
type CrewTag struct {
	Rotation Rotation
	Crew     string
}

// ParseShiftLetter decodes a stored shift-letter tag. It rejects unknown
// rotations and crew letters outside the rotation's range.
func ParseShiftLetter(s string) (CrewTag, error) {
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return CrewTag{}, fmt.Errorf("malformed shift letter %q", s)
	}

	rot := Rotation(parts[0])
	if !rot.Valid() {
		return CrewTag{}, fmt.Errorf("unknown rotation %q", parts[0])
	}

	crew := parts[1]
	for _, c := range rot.Crews() {
		if c == crew {
			return CrewTag{Rotation: rot, Crew: crew}, nil
		}
	}
	return CrewTag{}, fmt.Errorf("crew %q is not valid for rotation %s", crew, rot)
}

// String renders the tag back to its stored form.
func (t CrewTag) String() string {
	return fmt.Sprintf("%s %s", t.Rotation, t.Crew)
}

// Letter returns the stored ShiftLetter form of the tag.
func (t CrewTag) Letter() ShiftLetter {
	return ShiftLetter(t.String())
}

// SameFamily reports whether both tags belong to the same rotation scheme.
func (t CrewTag) SameFamily(other CrewTag) bool {
	return t.Rotation == other.Rotation
}

// Siblings returns the tags of every crew in the same rotation, including
// t itself. Inheritance sources are drawn from this set.
func (t CrewTag) Siblings() []CrewTag {
	crews := t.Rotation.Crews()
	out := make([]CrewTag, 0, len(crews))
	for _, c := range crews {
		out = append(out, CrewTag{Rotation: t.Rotation, Crew: c})
	}
	return out
}
