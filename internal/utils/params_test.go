package utils

import "testing"

func TestLimitParam(t *testing.T) {
	tests := []struct {
		s    string
		def  int
		max  int
		want int
	}{
		{"", 10, 100, 10},       // absent -> default
		{"25", 10, 100, 25},     // plain value
		{"3", 10, 100, 3},       // under default is fine
		{"500", 10, 100, 100},   // clamped to max
		{"0", 10, 100, 1},       // floor is 1
		{"-4", 10, 100, 1},      // negatives floor too
		{"abc", 10, 100, 10},    // malformed -> default
		{" 25", 10, 100, 10},    // no trimming, by contract
		{"999999999999999999999999", 10, 100, 10}, // overflow -> default
	}
	for _, tc := range tests {
		if got := LimitParam(tc.s, tc.def, tc.max); got != tc.want {
			t.Fatalf("LimitParam(%q, %d, %d) = %d, want %d", tc.s, tc.def, tc.max, got, tc.want)
		}
	}
}
