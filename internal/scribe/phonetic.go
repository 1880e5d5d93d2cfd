package scribe

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// Assignee matching thresholds. Spoken names in meeting audio arrive with
// recognition noise ("Aleks" for "Alex"), so a phonetic pass runs before the
// pure string-similarity fallback.
const (
	phoneticThreshold = 0.70
	fuzzyThreshold    = 0.85
)

// matchAssignee scans the item text for a token phonetically matching one of
// the known participant names and returns the canonical name. Multi-word
// names are matched token-wise.
func matchAssignee(text string, names []string) (string, bool) {
	if len(names) == 0 {
		return "", false
	}
	tokens := strings.Fields(strings.ToLower(text))

	var (
		bestName  string
		bestScore float64
	)
	for _, name := range names {
		nameLower := strings.ToLower(strings.TrimSpace(name))
		if nameLower == "" {
			continue
		}
		nameTokens := strings.Fields(nameLower)
		nameCodes := metaphoneCodes(nameTokens)

		for _, tok := range tokens {
			score := matchr.JaroWinkler(tok, nameLower, false)
			for _, nt := range nameTokens {
				if s := matchr.JaroWinkler(tok, nt, false); s > score {
					score = s
				}
			}
			threshold := fuzzyThreshold
			if codesOverlap(metaphoneCodes([]string{tok}), nameCodes) {
				threshold = phoneticThreshold
			}
			if score >= threshold && score > bestScore {
				bestName, bestScore = name, score
			}
		}
	}
	return bestName, bestName != ""
}

// metaphoneCodes returns the union of Double Metaphone codes for the tokens,
// excluding empty codes.
func metaphoneCodes(tokens []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(tokens)*2)
	for _, t := range tokens {
		p, s := matchr.DoubleMetaphone(t)
		if p != "" {
			codes[p] = struct{}{}
		}
		if s != "" {
			codes[s] = struct{}{}
		}
	}
	return codes
}

func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}
