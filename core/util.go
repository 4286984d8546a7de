package core

import "strings"

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// SameName reports whether `a` and `b` are equal once trimmed and lowered.
func SameName(a, b string) bool {
	return CleanString(a, true /* lower */) == CleanString(b, true /* lower */)
}
