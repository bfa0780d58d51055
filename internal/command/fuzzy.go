package command

import (
	"sort"

	"github.com/antzucaro/matchr"
)

// FuzzyMatcher ranks command phrases by Jaro-Winkler similarity. Matching is
// conservative: a candidate wins only when its score is strictly above the
// threshold, and ties resolve to the lexicographically first phrase so the
// result never depends on map order.
type FuzzyMatcher struct {
	threshold float64
}

// DefaultFuzzyThreshold keeps accidental keystrokes rare; anything at or
// below it falls through to literal text.
const DefaultFuzzyThreshold = 0.85

func NewFuzzyMatcher(threshold float64) *FuzzyMatcher {
	if threshold <= 0 {
		threshold = DefaultFuzzyThreshold
	}
	return &FuzzyMatcher{threshold: threshold}
}

// Best returns the closest candidate phrase scoring strictly above the
// threshold, or false when none qualifies.
func (m *FuzzyMatcher) Best(phrase string, candidates []string) (string, float64, bool) {
	normalized := Normalize(phrase)
	if normalized == "" || len(candidates) == 0 {
		return "", 0, false
	}

	ordered := make([]string, len(candidates))
	copy(ordered, candidates)
	sort.Strings(ordered)

	bestScore := m.threshold
	bestPhrase := ""
	for _, candidate := range ordered {
		score := matchr.JaroWinkler(normalized, Normalize(candidate), true)
		if score > bestScore {
			bestScore = score
			bestPhrase = candidate
		}
	}

	if bestPhrase == "" {
		return "", 0, false
	}
	return bestPhrase, bestScore, true
}
