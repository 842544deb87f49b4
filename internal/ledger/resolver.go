package ledger

import (
	"strings"
	"unicode"

	"github.com/hbollon/go-edlib"
)

// SimilarityThreshold is the lowest normalized Damerau-Levenshtein score
// at which a garbled read is booked under an existing name.
const SimilarityThreshold = 0.6

// Resolve maps a parsed, possibly garbled name onto one of keys.
// A key that starts or ends with the cleaned name wins immediately; otherwise
// the most similar key scoring above SimilarityThreshold wins. keys are
// scanned in the order given, so callers pass them sorted for stable results.
func Resolve(name string, keys []string) (string, bool) {
	clean := cleanName(name)
	if clean == "" || len(keys) == 0 {
		return name, false
	}

	best, bestScore := "", float32(SimilarityThreshold)
	for _, key := range keys {
		cleanKey := cleanName(key)
		if strings.HasPrefix(cleanKey, clean) || strings.HasSuffix(cleanKey, clean) {
			return key, true
		}

		score, err := edlib.StringsSimilarity(cleanKey, clean, edlib.DamerauLevenshtein)
		if err != nil {
			continue
		}
		if score > bestScore {
			best, bestScore = key, score
		}
	}

	if best == "" {
		return name, false
	}
	return best, true
}

// cleanName keeps letters, digits and spaces, lower-cased.
func cleanName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
