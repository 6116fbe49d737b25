// Package utils provides small helpers shared by the HTTP handlers.
package utils

import "strconv"

// LimitParam parses a "limit" query value and clamps the result to [1, max].
// Empty or malformed input yields def. Analytics endpoints use this so a
// dashboard cannot request an unbounded breakdown.
func LimitParam(s string, def, max int) int {
	n := def
	if s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			n = v
		}
	}
	if n < 1 {
		return 1
	}
	if n > max {
		return max
	}
	return n
}
