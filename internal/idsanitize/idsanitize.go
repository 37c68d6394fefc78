// Package idsanitize holds the single sanitizer shared by
// easteregg.DimensionIDFor and customkey.DimensionIDFor (spec.md §4.B,
// §4.C): every byte outside [a-z0-9_] becomes '_', and an empty result
// falls back to a caller-supplied default.
package idsanitize

// Sanitize maps characters outside [a-z0-9_] to '_' and returns fallback if
// the result would be empty.
func Sanitize(s, fallback string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '_':
			out[i] = c
		default:
			out[i] = '_'
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return string(out)
}
