package schema

import "testing"

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare uuid untouched", "a1b2c3", "a1b2c3"},
		{"doubled id collapses", "a1b2c3_a1b2c3", "a1b2c3"},
		{"composite preserved", "report1_pending9", "report1_pending9"},
		{"empty passes through", "", ""},
		{"three parts preserved", "a_b_c", "a_b_c"},
		{"leading separator preserved", "_abc", "_abc"},
		{"hyphenated uuid untouched", "550e8400-e29b-41d4", "550e8400-e29b-41d4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeID(tt.in); got != tt.want {
				t.Errorf("NormalizeID(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseID_Kinds(t *testing.T) {
	if id := ParseID("r1_k1"); id.Kind != IDDerived {
		t.Errorf("expected r1_k1 to parse as derived, got %v", id.Kind)
	} else {
		if id.Parent != "r1" || id.Key != "k1" {
			t.Errorf("derived parts = (%q, %q), want (r1, k1)", id.Parent, id.Key)
		}
	}

	if id := ParseID("x_x"); id.Kind != IDRoot || id.Value != "x" {
		t.Errorf("doubled id should repair to root x, got %+v", id)
	}

	if !IsDerivedID(DerivedID("rep", "key")) {
		t.Error("DerivedID output should classify as derived")
	}
	if IsDerivedID("plain") {
		t.Error("plain id should not classify as derived")
	}
}
