package schema

import "testing"

func TestParseShiftLetter(t *testing.T) {
	tests := []struct {
		in      string
		wantRot Rotation
		wantCrw string
		wantErr bool
	}{
		{"4x4 A", Rotation4x4, "A", false},
		{"4x4 D", Rotation4x4, "D", false},
		{"3x2 B", Rotation3x2, "B", false},
		{"3x2 C", "", "", true}, // 3x2 only has A and B
		{"5x5 A", "", "", true},
		{"4x4", "", "", true},
		{"", "", "", true},
		{"4x4 A B", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			tag, err := ParseShiftLetter(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseShiftLetter(%q) expected error, got %+v", tt.in, tag)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseShiftLetter(%q) failed: %v", tt.in, err)
			}
			if tag.Rotation != tt.wantRot || tag.Crew != tt.wantCrw {
				t.Errorf("got (%s, %s), want (%s, %s)", tag.Rotation, tag.Crew, tt.wantRot, tt.wantCrw)
			}
			if tag.String() != tt.in {
				t.Errorf("round trip = %q, want %q", tag.String(), tt.in)
			}
		})
	}
}

func TestCrewTagSiblings(t *testing.T) {
	tag, err := ParseShiftLetter("4x4 B")
	if err != nil {
		t.Fatalf("ParseShiftLetter failed: %v", err)
	}

	sibs := tag.Siblings()
	if len(sibs) != 4 {
		t.Fatalf("expected 4 siblings for 4x4, got %d", len(sibs))
	}

	tag32, err := ParseShiftLetter("3x2 A")
	if err != nil {
		t.Fatalf("ParseShiftLetter failed: %v", err)
	}
	if len(tag32.Siblings()) != 2 {
		t.Errorf("expected 2 siblings for 3x2, got %d", len(tag32.Siblings()))
	}

	if tag.SameFamily(tag32) {
		t.Error("4x4 and 3x2 must not be the same family")
	}
}

func TestPriorityRank(t *testing.T) {
	order := []Priority{PriorityUrgente, PriorityAlta, PriorityMedia, PriorityBaixa}
	for i := 1; i < len(order); i++ {
		if order[i-1].Rank() >= order[i].Rank() {
			t.Errorf("%s should rank before %s", order[i-1], order[i])
		}
	}
	if Priority("NOPE").Valid() {
		t.Error("unknown priority should not be valid")
	}
}
