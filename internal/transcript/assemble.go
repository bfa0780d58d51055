// Package transcript assembles and normalizes recognized ASR segments.
package transcript

import "strings"

// Options controls transcript assembly formatting behavior.
type Options struct {
	TrailingSpace       bool
	CapitalizeSentences bool
}

// Format applies the configured normalization to one literal utterance.
// The text itself stays verbatim: casing and inner whitespace are only
// touched by the options the user turned on.
func Format(text string, opts Options) string {
	if text == "" {
		return ""
	}
	if opts.CapitalizeSentences {
		text = capitalizeSentences(text)
	}
	if opts.TrailingSpace {
		text += " "
	}
	return text
}

// Assemble joins final ASR segments and applies configured normalization.
func Assemble(finalSegments []string, opts Options) string {
	if len(finalSegments) == 0 {
		return ""
	}

	joined := strings.Join(finalSegments, " ")
	normalized := strings.Join(strings.Fields(joined), " ")
	if normalized == "" {
		return ""
	}

	if opts.CapitalizeSentences {
		normalized = capitalizeSentences(normalized)
	}

	if opts.TrailingSpace {
		return normalized + " "
	}
	return normalized
}
