package textmatch

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize reduces a raw product name to a comparable token: lowercase,
// diacritics removed, everything except letters and digits dropped.
// Idempotent and pure.
func Normalize(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	if lowered == "" {
		return ""
	}

	stripped, _, err := transform.String(stripAccents, lowered)
	if err != nil {
		stripped = lowered
	}

	var b strings.Builder
	b.Grow(len(stripped))
	for _, r := range stripped {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DiceSimilarity computes the bigram Dice coefficient between two normalized
// tokens. Returns 1 for identical strings of at least two runes and 0 when
// either side is shorter than two runes. Symmetric in its arguments.
func DiceSimilarity(a, b string) float64 {
	aRunes := []rune(a)
	bRunes := []rune(b)
	if len(aRunes) < 2 || len(bRunes) < 2 {
		return 0
	}
	if a == b {
		return 1
	}

	counts := make(map[string]int, len(aRunes)-1)
	for i := 0; i < len(aRunes)-1; i++ {
		counts[string(aRunes[i:i+2])]++
	}

	matches := 0
	for i := 0; i < len(bRunes)-1; i++ {
		bigram := string(bRunes[i : i+2])
		if counts[bigram] > 0 {
			counts[bigram]--
			matches++
		}
	}

	return 2 * float64(matches) / float64(len(aRunes)-1+len(bRunes)-1)
}
