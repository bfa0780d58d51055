// Package command implements the deterministic transcript parser: catalog
// registry, custom commands, optional fuzzy matching, and snippet expansion.
package command

import (
	"fmt"
	"strings"
)

// Channel classifies how a matched definition is executed.
type Channel string

const (
	// ChannelCommand routes through the action dispatcher.
	ChannelCommand Channel = "command"
	// ChannelSystem is reserved for pause/resume/stop control phrases.
	ChannelSystem Channel = "system"
)

// Gate names a feature flag that controls definition availability.
type Gate string

const (
	GateNone           Gate = ""
	GateWindowCommands Gate = "window_commands"
)

// Definition is one registry entry for a parseable phrase.
type Definition struct {
	ID      string
	Phrase  string
	Aliases []string
	Channel Channel
	Gate    Gate
}

// Normalize trims, lowercases, and collapses whitespace. Every registry and
// parser match runs over normalized text.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(text))), " ")
}

// Registry is a case-insensitive phrase/alias lookup with collision
// protection. Lookups honor feature gates; registration does not.
type Registry struct {
	byPhrase map[string]Definition
	gates    map[Gate]bool
}

func NewRegistry(defs []Definition, enabled ...Gate) (*Registry, error) {
	r := &Registry{
		byPhrase: make(map[string]Definition),
		gates:    make(map[Gate]bool),
	}
	for _, gate := range enabled {
		r.gates[gate] = true
	}
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a definition and all aliases, rejecting collisions.
func (r *Registry) Register(def Definition) error {
	phrases := make([]string, 0, 1+len(def.Aliases))
	phrases = append(phrases, Normalize(def.Phrase))
	for _, alias := range def.Aliases {
		phrases = append(phrases, Normalize(alias))
	}

	for _, phrase := range phrases {
		if phrase == "" {
			return fmt.Errorf("command %q has an empty phrase or alias", def.ID)
		}
		if existing, ok := r.byPhrase[phrase]; ok {
			return fmt.Errorf("command phrase collision: %q claimed by both %q and %q", phrase, existing.ID, def.ID)
		}
	}

	for _, phrase := range phrases {
		r.byPhrase[phrase] = def
	}
	return nil
}

// Match returns the definition for a phrase/alias when its gate is enabled.
func (r *Registry) Match(phrase string) (Definition, bool) {
	normalized := Normalize(phrase)
	if normalized == "" {
		return Definition{}, false
	}
	def, ok := r.byPhrase[normalized]
	if !ok || !r.enabled(def) {
		return Definition{}, false
	}
	return def, true
}

// EnabledPhrases returns every gated-in command-channel phrase, for fuzzy
// candidate listing. System phrases are deliberately excluded: they stay
// exact-match only.
func (r *Registry) EnabledPhrases() []string {
	phrases := make([]string, 0, len(r.byPhrase))
	for phrase, def := range r.byPhrase {
		if def.Channel == ChannelSystem || !r.enabled(def) {
			continue
		}
		phrases = append(phrases, phrase)
	}
	return phrases
}

func (r *Registry) enabled(def Definition) bool {
	return def.Gate == GateNone || r.gates[def.Gate]
}
