// Package wake detects the spoken wake phrase in transcripts and tracks the
// bounded listening window it opens.
package wake

import (
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/voicekey-io/voicekey/internal/command"
)

// DefaultSensitivity is the minimum similarity score that counts as a wake.
const DefaultSensitivity = 0.55

// Match is one detection attempt outcome.
type Match struct {
	Matched bool
	// Score is the best windowed similarity observed, 1.0 for an exact
	// substring hit.
	Score float64
}

// Detector scores transcripts against the configured wake phrase. An exact
// normalized substring always matches; otherwise every n-token window of the
// transcript is compared by Jaro-Winkler similarity and the best window is
// held against the sensitivity threshold.
type Detector struct {
	phrase      string
	phraseLen   int
	sensitivity float64
}

func NewDetector(phrase string, sensitivity float64) *Detector {
	if sensitivity <= 0 || sensitivity > 1 {
		sensitivity = DefaultSensitivity
	}
	normalized := command.Normalize(phrase)
	return &Detector{
		phrase:      normalized,
		phraseLen:   len(strings.Fields(normalized)),
		sensitivity: sensitivity,
	}
}

// Phrase returns the normalized wake phrase.
func (d *Detector) Phrase() string {
	return d.phrase
}

// Detect scores text against the wake phrase.
func (d *Detector) Detect(text string) Match {
	normalized := command.Normalize(text)
	if d.phrase == "" || normalized == "" {
		return Match{}
	}

	if strings.Contains(normalized, d.phrase) {
		return Match{Matched: true, Score: 1.0}
	}

	best := 0.0
	tokens := strings.Fields(normalized)
	for start := 0; start+d.phraseLen <= len(tokens); start++ {
		window := strings.Join(tokens[start:start+d.phraseLen], " ")
		if score := matchr.JaroWinkler(window, d.phrase, true); score > best {
			best = score
		}
	}

	return Match{Matched: best >= d.sensitivity, Score: best}
}
