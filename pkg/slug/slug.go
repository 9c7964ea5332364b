// Package slug generates URL-safe identifiers from display names.
package slug

import (
	"strings"
	"unicode"
)

// Make converts a name to a lowercase hyphen-separated slug. Runs of
// non-alphanumeric characters collapse to a single hyphen.
func Make(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	prevHyphen := false
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) && r < 128, unicode.IsDigit(r):
			b.WriteRune(r)
			prevHyphen = false
		default:
			if !prevHyphen && b.Len() > 0 {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}

	return strings.Trim(b.String(), "-")
}

// WithSuffix appends a short suffix, used to disambiguate slug collisions.
func WithSuffix(base, suffix string) string {
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}
