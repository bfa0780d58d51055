package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/voicekey-io/voicekey/internal/command"
)

// Pack is the parsed command pack: user-defined commands plus snippet
// expansions, loaded from commands.yaml.
type Pack struct {
	Customs  []command.Custom
	Snippets map[string]string
}

type yamlPack struct {
	Commands map[string]yamlPackCommand `yaml:"commands"`
	Snippets map[string]string          `yaml:"snippets"`
}

type yamlPackCommand struct {
	Phrase string   `yaml:"phrase"`
	Action string   `yaml:"action"`
	Keys   []string `yaml:"keys"`
	Text   string   `yaml:"text"`
}

// LoadPack reads the command pack. A missing file is an empty pack, not an
// error; a malformed file is always an error so pack authors see it.
func LoadPack(path string) (Pack, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Pack{Snippets: map[string]string{}}, nil
		}
		return Pack{}, fmt.Errorf("open command pack %q: %w", path, err)
	}
	defer f.Close()

	return parsePack(f)
}

func parsePack(r io.Reader) (Pack, error) {
	decoder := yaml.NewDecoder(r)
	// Unknown keys are a hard error: a typoed "phrases" silently dropping a
	// command is worse than a load failure.
	decoder.KnownFields(true)

	var payload yamlPack
	if err := decoder.Decode(&payload); err != nil {
		if errors.Is(err, io.EOF) {
			return Pack{Snippets: map[string]string{}}, nil
		}
		return Pack{}, fmt.Errorf("parse command pack: %w", err)
	}

	pack := Pack{Snippets: payload.Snippets}
	if pack.Snippets == nil {
		pack.Snippets = map[string]string{}
	}

	names := make([]string, 0, len(payload.Commands))
	for name := range payload.Commands {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		entry := payload.Commands[name]
		custom, err := command.BuildCustom(name, command.Custom{
			Phrase: entry.Phrase,
			Action: command.CustomActionType(strings.TrimSpace(entry.Action)),
			Keys:   entry.Keys,
			Text:   entry.Text,
		})
		if err != nil {
			return Pack{}, fmt.Errorf("command pack: %w", err)
		}
		pack.Customs = append(pack.Customs, custom)
	}

	return pack, nil
}

// CustomsByID indexes the pack commands the way the action layer consumes
// them.
func (p Pack) CustomsByID() map[string]command.Custom {
	out := make(map[string]command.Custom, len(p.Customs))
	for _, c := range p.Customs {
		out[c.ID] = c
	}
	return out
}
