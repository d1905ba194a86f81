package search

import (
	"strings"
)

// metaChars lists the bytes escaped by Quote: the RE2 meta-characters, plus
// '-' and ' '.
const metaChars = `()+-. \*?[]{}^$|`

func isMeta(b byte) bool {
	return strings.IndexByte(metaChars, b) >= 0
}

// Quote escapes the pattern meta-characters in term with a backslash, so that
// the result matches term literally when embedded in a regular expression.
// A term without meta-characters is returned unchanged.
func Quote(term string) string {
	n := 0
	for i := 0; i < len(term); i++ {
		if isMeta(term[i]) {
			n++
		}
	}
	if n == 0 {
		return term
	}

	var sb strings.Builder
	sb.Grow(len(term) + n)
	for i := 0; i < len(term); i++ {
		if isMeta(term[i]) {
			sb.WriteByte('\\')
		}
		sb.WriteByte(term[i])
	}
	return sb.String()
}
