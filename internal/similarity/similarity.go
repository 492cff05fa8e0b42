// Package similarity scores how alike two merchant names are after smoothing
// over the spacing and dash variations OCR output tends to produce.
package similarity

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// DefaultThreshold is the similarity at or above which two names are treated
// as the same merchant.
const DefaultThreshold = 0.85

// dashReplacer folds long-dash and hyphen look-alikes into '-'.
var dashReplacer = strings.NewReplacer(
	"‐", "-", // hyphen
	"‑", "-", // non-breaking hyphen
	"‒", "-", // figure dash
	"–", "-", // en dash
	"—", "-", // em dash
	"―", "-", // horizontal bar
	"−", "-", // minus sign
	"－", "-", // fullwidth hyphen-minus
	"ー", "-", // katakana prolonged sound mark
	"ｰ", "-", // halfwidth prolonged sound mark
)

// Normalize folds full-width spaces, removes all whitespace, lowercases and
// unifies dash variants.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "　", " ")
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	s = strings.ToLower(s)
	return dashReplacer.Replace(s)
}

// Similarity returns 1 - distance/maxLen over the normalized strings, in [0,1].
// Lengths are counted in runes.
func Similarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == nb {
		return 1.0
	}

	maxLen := utf8.RuneCountInString(na)
	if lb := utf8.RuneCountInString(nb); lb > maxLen {
		maxLen = lb
	}
	if maxLen == 0 {
		return 1.0
	}

	distance := levenshtein.ComputeDistance(na, nb)
	return 1 - float64(distance)/float64(maxLen)
}

// IsSimilar reports whether Similarity(a, b) reaches threshold.
func IsSimilar(a, b string, threshold float64) bool {
	return Similarity(a, b) >= threshold
}
