package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		name string
		s    string
		def  int
		want int
	}{
		{"empty falls back", "", 1, 1},
		{"plain page number", "3", 1, 3},
		{"negative parses", "-2", 1, -2},
		{"leading zeros", "007", 10, 7},
		{"junk falls back", "ten", 10, 10},
		{"padded input is not trimmed", " 3", 1, 1},
		{"overflow falls back", "99999999999999999999", 10, 10},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AtoiDefault(tc.s, tc.def); got != tc.want {
				t.Fatalf("AtoiDefault(%q, %d) = %d, want %d", tc.s, tc.def, got, tc.want)
			}
		})
	}
}
