package transcript

import (
	"strings"
	"unicode"
)

// Abbreviations whose trailing period rarely ends a dictated sentence.
// The list is short on purpose: live dictation mostly produces plain
// prose, and a missed capitalization is cheaper than a false one.
var nonTerminalAbbrevs = map[string]bool{
	"approx": true,
	"dr":     true,
	"e.g":    true,
	"etc":    true,
	"fig":    true,
	"i.e":    true,
	"mr":     true,
	"mrs":    true,
	"ms":     true,
	"no":     true,
	"prof":   true,
	"vs":     true,
}

// Abbreviations that stay lowercase even when they open a sentence.
var lowercaseAbbrevs = map[string]bool{
	"e.g": true,
	"etc": true,
	"i.e": true,
	"vs":  true,
}

func capitalizeSentences(text string) string {
	return fixPronounI(capitalizeStarts(text))
}

// capitalizeStarts uppercases the first letter of the utterance and of
// every word that follows a sentence-ending period, question mark or
// exclamation mark.
func capitalizeStarts(text string) string {
	runes := []rune(text)
	var out strings.Builder
	out.Grow(len(text))

	atStart := true
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if atStart {
			switch {
			case unicode.IsSpace(r), isQuoteOrBracket(r):
				// Still before the sentence's first word.
			case unicode.IsLetter(r):
				if !lowercaseAbbrevs[wordAt(runes, i)] {
					r = unicode.ToUpper(r)
				}
				atStart = false
			default:
				atStart = false
			}
		}
		out.WriteRune(r)

		switch r {
		case '!', '?':
			atStart = true
		case '.':
			atStart = periodEndsSentence(runes, i)
		}
	}
	return out.String()
}

// periodEndsSentence decides whether the period at idx closes a sentence.
// Decimals, dotted tokens like file names, initialisms and a small set of
// abbreviations do not.
func periodEndsSentence(runes []rune, idx int) bool {
	if idx+1 < len(runes) {
		next := runes[idx+1]
		if unicode.IsLetter(next) || unicode.IsDigit(next) || next == '.' {
			return false
		}
		if idx > 0 && unicode.IsDigit(runes[idx-1]) && unicode.IsDigit(next) {
			return false
		}
	}

	word := wordEndingAt(runes, idx)
	if word == "" {
		return true
	}
	if nonTerminalAbbrevs[word] || isInitialism(word) {
		// An already-capitalized next word is strong evidence the speaker
		// started a new sentence anyway.
		return nextWordIsCapitalized(runes, idx+1)
	}
	return true
}

// wordAt returns the lowercased letters-and-dots token starting at idx,
// trimmed of trailing dots.
func wordAt(runes []rune, idx int) string {
	end := idx
	for end < len(runes) && (unicode.IsLetter(runes[end]) || runes[end] == '.') {
		end++
	}
	return strings.ToLower(strings.TrimRight(string(runes[idx:end]), "."))
}

// wordEndingAt returns the lowercased token immediately before the period
// at idx, dots kept inside but trimmed at the edges.
func wordEndingAt(runes []rune, idx int) string {
	start := idx
	for start > 0 && (unicode.IsLetter(runes[start-1]) || runes[start-1] == '.') {
		start--
	}
	return strings.Trim(strings.ToLower(string(runes[start:idx])), ".")
}

// isInitialism reports whether token looks like u.s or f.b.i: single
// letters joined by dots.
func isInitialism(token string) bool {
	parts := strings.Split(token, ".")
	if len(parts) < 2 {
		return false
	}
	for _, p := range parts {
		r := []rune(p)
		if len(r) != 1 || !unicode.IsLetter(r[0]) {
			return false
		}
	}
	return true
}

func nextWordIsCapitalized(runes []rune, from int) bool {
	for i := from; i < len(runes); i++ {
		r := runes[i]
		if unicode.IsSpace(r) || isQuoteOrBracket(r) {
			continue
		}
		return unicode.IsUpper(r)
	}
	return false
}

func isQuoteOrBracket(r rune) bool {
	switch r {
	case '"', '\'', '‘', '’', '“', '”', '(', ')', '[', ']', '{', '}':
		return true
	}
	return false
}

// Contraction suffixes that follow the pronoun I.
var pronounISuffixes = []string{"m", "d", "ll", "ve", "re", "s"}

// fixPronounI uppercases the standalone pronoun "i" and its contractions
// ("i'm", "i'll", ...). Dotted neighborhoods are left alone so "i.e." and
// initialisms like "f.b.i." keep their casing.
func fixPronounI(text string) string {
	runes := []rune(text)
	for idx, r := range runes {
		if r != 'i' {
			continue
		}
		if idx > 0 && isWordRune(runes[idx-1]) {
			continue
		}
		next := rune(0)
		if idx+1 < len(runes) {
			next = runes[idx+1]
		}
		switch {
		case next == 0 || unicode.IsSpace(next) || isBareIBoundary(next):
			if partOfDottedToken(runes, idx) {
				continue
			}
		case next == '\'' || next == '’':
			if !hasContractionSuffix(runes, idx+2) {
				continue
			}
		case next == '.':
			// "i." ends a sentence, "i.e" does not.
			if idx+2 < len(runes) && unicode.IsLetter(runes[idx+2]) {
				continue
			}
			if partOfDottedToken(runes, idx) {
				continue
			}
		default:
			continue
		}
		runes[idx] = 'I'
	}
	return string(runes)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isBareIBoundary(r rune) bool {
	switch r {
	case ',', ';', ':', '!', '?', ')', ']', '}', '"', '”':
		return true
	}
	return false
}

// partOfDottedToken reports whether the rune at idx sits inside a dotted
// token such as the trailing letter of "f.b.i".
func partOfDottedToken(runes []rune, idx int) bool {
	return idx >= 2 && runes[idx-1] == '.' && unicode.IsLetter(runes[idx-2])
}

func hasContractionSuffix(runes []rune, from int) bool {
	for _, suffix := range pronounISuffixes {
		s := []rune(suffix)
		if from+len(s) > len(runes) {
			continue
		}
		match := true
		for i, sr := range s {
			if runes[from+i] != sr {
				match = false
				break
			}
		}
		if !match {
			continue
		}
		if from+len(s) == len(runes) || !isWordRune(runes[from+len(s)]) {
			return true
		}
	}
	return false
}
