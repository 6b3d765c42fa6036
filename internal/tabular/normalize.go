package tabular

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes a cell for comparison: null becomes "", everything
// else is rendered as text, trimmed, and lowercased. All identifier equality
// checks and index keys go through this.
func Normalize(v Value) string {
	if v.Kind() == KindNull {
		return ""
	}
	return NormalizeString(v.Text())
}

// NormalizeString trims and lowercases raw text.
func NormalizeString(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// diacriticStripper removes combining marks after NFD decomposition, so
// "José" folds to "Jose" before name comparison.
var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldDiacritics strips accents from s. On transform failure the input is
// returned unchanged; a misfolded name only lowers a similarity score.
func FoldDiacritics(s string) string {
	out, _, err := transform.String(diacriticStripper, s)
	if err != nil {
		return s
	}
	return out
}
