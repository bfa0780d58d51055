package command

import (
	"fmt"
	"strings"
)

// maxSnippetDepth bounds nested snippet expansion.
const maxSnippetDepth = 8

// SnippetExpander performs deterministic token replacement on dictated text.
// Triggers match whole normalized tokens only; expansions may themselves
// contain triggers, guarded against cycles.
type SnippetExpander struct {
	snippets map[string]string
}

func NewSnippetExpander(snippets map[string]string) (*SnippetExpander, error) {
	normalized := make(map[string]string, len(snippets))
	for trigger, expansion := range snippets {
		key := Normalize(trigger)
		if key == "" {
			return nil, fmt.Errorf("snippet trigger %q is empty after normalization", trigger)
		}
		if strings.Contains(key, " ") {
			return nil, fmt.Errorf("snippet trigger %q must be a single token", trigger)
		}
		if _, ok := normalized[key]; ok {
			return nil, fmt.Errorf("duplicate snippet trigger %q", key)
		}
		normalized[key] = expansion
	}
	return &SnippetExpander{snippets: normalized}, nil
}

// Expand replaces snippet triggers in text, recursively up to maxSnippetDepth.
// A trigger already present in the expansion trail is left verbatim, which
// makes self-referential snippets safe instead of unbounded.
func (e *SnippetExpander) Expand(text string) string {
	if len(e.snippets) == 0 {
		return text
	}
	return e.expand(text, nil, 0)
}

func (e *SnippetExpander) expand(text string, trail []string, depth int) string {
	if depth >= maxSnippetDepth {
		return text
	}

	tokens := strings.Fields(text)
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		key := strings.ToLower(token)
		expansion, ok := e.snippets[key]
		if !ok || inTrail(trail, key) {
			out = append(out, token)
			continue
		}
		out = append(out, e.expand(expansion, append(trail, key), depth+1))
	}
	return strings.Join(out, " ")
}

func inTrail(trail []string, key string) bool {
	for _, seen := range trail {
		if seen == key {
			return true
		}
	}
	return false
}
