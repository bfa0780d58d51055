package command

import (
	"fmt"
	"strings"
)

// CustomActionType selects how a custom command executes.
type CustomActionType string

const (
	ActionKeyCombo CustomActionType = "key_combo"
	ActionText     CustomActionType = "text"
)

// Custom is a user-defined command loaded from the command pack.
type Custom struct {
	ID     string
	Phrase string
	Action CustomActionType
	Keys   []string
	Text   string
}

// customPrefix namespaces user commands so they can never shadow a builtin ID.
const customPrefix = "custom_"

// BuildCustom validates one pack entry and produces its definition. The name
// comes from the pack key; the returned ID always carries the custom_ prefix.
func BuildCustom(name string, c Custom) (Custom, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Custom{}, fmt.Errorf("custom command has an empty name")
	}
	if Normalize(c.Phrase) == "" {
		return Custom{}, fmt.Errorf("custom command %q has an empty phrase", name)
	}

	switch c.Action {
	case ActionKeyCombo:
		if len(c.Keys) == 0 {
			return Custom{}, fmt.Errorf("custom command %q: key_combo action requires keys", name)
		}
	case ActionText:
		if c.Text == "" {
			return Custom{}, fmt.Errorf("custom command %q: text action requires text", name)
		}
	default:
		return Custom{}, fmt.Errorf("custom command %q: unknown action %q", name, c.Action)
	}

	c.ID = customPrefix + strings.TrimPrefix(name, customPrefix)
	c.Phrase = Normalize(c.Phrase)
	return c, nil
}

// RegisterCustoms adds user commands to the registry. A phrase collision with
// a builtin or another custom command is a hard error so the pack author sees
// it immediately.
func RegisterCustoms(r *Registry, customs []Custom) error {
	for _, c := range customs {
		def := Definition{ID: c.ID, Phrase: c.Phrase, Channel: ChannelCommand}
		if err := r.Register(def); err != nil {
			return fmt.Errorf("load custom commands: %w", err)
		}
	}
	return nil
}
