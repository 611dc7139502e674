// Package textutil provides accent-insensitive text normalization for
// matching user input against stored titles.
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes characters and removes combining diacritical marks,
// so "schůzka" and "schuzka" normalize to the same string.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize returns text lowercased with diacritics removed.
// Normalize is idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	stripped, _, err := transform.String(stripMarks, text)
	if err != nil {
		// Transform only fails on malformed UTF-8; fall back to lowercasing.
		return strings.ToLower(text)
	}
	return strings.ToLower(stripped)
}

// ContainsFold reports whether haystack contains needle as a substring,
// ignoring case and diacritics.
func ContainsFold(haystack, needle string) bool {
	return strings.Contains(Normalize(haystack), Normalize(needle))
}
