package palette

import "testing"

func TestRampHasFullResolution(t *testing.T) {
	if got := len(Ramp256); got != 256 {
		t.Fatalf("ramp length = %d, want 256", got)
	}
	if Ramp256[0] != rampAnchors[0] {
		t.Errorf("ramp start = %s, want %s", Ramp256[0], rampAnchors[0])
	}
	if last := Ramp256[len(Ramp256)-1]; last != rampAnchors[len(rampAnchors)-1] {
		t.Errorf("ramp end = %s, want %s", last, rampAnchors[len(rampAnchors)-1])
	}
}

func TestLerp(t *testing.T) {
	tests := []struct {
		a, b string
		t    float64
		want string
	}{
		{"#000000", "#ffffff", 0, "#000000"},
		{"#000000", "#ffffff", 1, "#ffffff"},
		{"#000000", "#fefefe", 0.5, "#7f7f7f"},
		{"#ff0000", "#ff0000", 0.3, "#ff0000"},
		// Decreasing channels must round symmetrically with increasing ones.
		{"#ffffff", "#000000", 1, "#000000"},
		{"#0a0000", "#000000", 0.5, "#050000"},
	}
	for _, tc := range tests {
		if got := Lerp(tc.a, tc.b, tc.t); got != tc.want {
			t.Errorf("Lerp(%s, %s, %.1f) = %s, want %s", tc.a, tc.b, tc.t, got, tc.want)
		}
	}
}

func TestCategoricalPalettesAreWellFormed(t *testing.T) {
	for _, p := range [][]string{Category10, Category20} {
		for _, c := range p {
			if len(c) != 7 || c[0] != '#' {
				t.Errorf("malformed palette entry %q", c)
			}
		}
	}
}
