// Package similarity scores fuzzy string matches on a 0-100 integer scale.
//
// The scorer is a token-set ratio: both strings are reduced to sorted unique
// word sets, and the score is the best Levenshtein ratio among the
// intersection/remainder combination strings. This makes the score
// insensitive to word order ("Smith, John" vs "John Smith") and tolerant of
// token subsets ("John A Smith" vs "John Smith" scores 100).
package similarity

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"

	"github.com/sahelgroup/recon-cli/internal/tabular"
)

// TokenSetRatio compares two strings on a 0-100 scale. Empty or
// token-free input on either side scores 0.
func TokenSetRatio(a, b string) int {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	var inter, restA, restB []string
	for _, tok := range setA {
		if contains(setB, tok) {
			inter = append(inter, tok)
		} else {
			restA = append(restA, tok)
		}
	}
	for _, tok := range setB {
		if !contains(setA, tok) {
			restB = append(restB, tok)
		}
	}

	base := strings.Join(inter, " ")
	combinedA := join(base, restA)
	combinedB := join(base, restB)

	best := Ratio(base, combinedA)
	if r := Ratio(base, combinedB); r > best {
		best = r
	}
	if r := Ratio(combinedA, combinedB); r > best {
		best = r
	}
	return best
}

// Ratio is the normalized Levenshtein similarity of two strings, 0-100.
func Ratio(a, b string) int {
	if a == b {
		return 100
	}
	la := len([]rune(a))
	lb := len([]rune(b))
	if la == 0 || lb == 0 {
		return 0
	}
	longer := la
	if lb > longer {
		longer = lb
	}
	dist := levenshtein.ComputeDistance(a, b)
	return int(math.Round(100 * (1 - float64(dist)/float64(longer))))
}

// tokenSet splits s into sorted unique lowercase tokens, folding diacritics
// and dropping punctuation.
func tokenSet(s string) []string {
	folded := tabular.FoldDiacritics(strings.ToLower(s))
	fields := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]struct{}, len(fields))
	var out []string
	for _, f := range fields {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func contains(set []string, tok string) bool {
	for _, s := range set {
		if s == tok {
			return true
		}
	}
	return false
}

func join(base string, rest []string) string {
	if len(rest) == 0 {
		return base
	}
	if base == "" {
		return strings.Join(rest, " ")
	}
	return base + " " + strings.Join(rest, " ")
}
