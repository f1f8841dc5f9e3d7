package domain

import "testing"

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want CanonicalKey
	}{
		{"spaces removed", "Plush Pepe", "plushpepe"},
		{"hyphens removed", "plush-pepe", "plushpepe"},
		{"already canonical", "PlushPepe", "plushpepe"},
		{"apostrophe removed", "Durov's Cap", "durovscap"},
		{"typographic apostrophe removed", "Durov’s Cap", "durovscap"},
		{"mixed whitespace", " Jelly\tBunny\n", "jellybunny"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Canonicalize(tt.in); got != tt.want {
				t.Errorf("Canonicalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCanonicalizeIdempotent(t *testing.T) {
	inputs := []string{"Plush Pepe", "plush-pepe", "Durov’s Cap", "Lol Pop", "", "Santa Hat"}
	for _, in := range inputs {
		once := Canonicalize(in)
		twice := Canonicalize(string(once))
		if once != twice {
			t.Errorf("Canonicalize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestCanonicalizeEquivalence(t *testing.T) {
	a := Canonicalize("Plush Pepe")
	b := Canonicalize("plush-pepe")
	c := Canonicalize("PlushPepe")
	if a != b || b != c {
		t.Errorf("expected equal keys, got %q %q %q", a, b, c)
	}
}

func TestFloorMapUpdateFloor(t *testing.T) {
	m := FloorMap{}
	m.UpdateFloor("plushpepe", 12.5)
	m.UpdateFloor("plushpepe", 10.0)
	m.UpdateFloor("plushpepe", 11.0)
	if got := m["plushpepe"]; got != 10.0 {
		t.Errorf("floor = %v, want 10.0", got)
	}
}

func TestDepthQuoteSellPrice(t *testing.T) {
	f, s := 10.0, 11.5
	tests := []struct {
		name   string
		q      DepthQuote
		want   float64
		wantOK bool
	}{
		{"second preferred", DepthQuote{Floor: &f, Second: &s}, 11.5, true},
		{"floor fallback", DepthQuote{Floor: &f}, 10.0, true},
		{"second only", DepthQuote{Second: &s}, 11.5, true},
		{"empty", DepthQuote{}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.q.SellPrice()
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("SellPrice() = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
