package slugs

import "testing"

func TestDerive(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Smith Family", "smith-family"},
		{"  Summer Picnic 2026!  ", "summer-picnic-2026"},
		{"O'Brien & Sons", "o-brien-sons"},
		{"--already--slugged--", "already-slugged"},
		{"Çilek Festivali", "çilek-festivali"},
		{"!!!", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Derive(tc.in); got != tc.want {
			t.Fatalf("Derive(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestWithSuffix(t *testing.T) {
	if got := WithSuffix("smith-family", 0); got != "smith-family" {
		t.Fatalf("attempt zero should keep the base, got %q", got)
	}
	if got := WithSuffix("smith-family", 2); got != "smith-family-2" {
		t.Fatalf("WithSuffix = %q, want smith-family-2", got)
	}
	if got := WithSuffix("smith-family", -1); got != "smith-family" {
		t.Fatalf("negative attempt should keep the base, got %q", got)
	}
}
