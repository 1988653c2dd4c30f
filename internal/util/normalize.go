package util

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalise lowercases a string, strips diacritics and collapses internal
// whitespace, so that "São  Paulo" and "sao paulo" compare equal. This is
// the single normalization used for all name matching (admin units,
// organizations, sectors).
func Normalise(s string) string {
	// Transformers carry internal state, so build the chain per call:
	// Normalise is called from concurrent per-country workers.
	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(stripper, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}

// Slugify derives a stable identifier from a name: normalized, with every
// run of non-alphanumeric characters replaced by a single hyphen.
func Slugify(s string) string {
	n := Normalise(s)
	var b strings.Builder
	b.Grow(len(n))
	lastHyphen := true // Suppress a leading hyphen
	for _, r := range n {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastHyphen = false
		} else if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
